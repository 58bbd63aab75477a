package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/document"
	"github.com/jonathan/story-annotations/internal/observability"
	"github.com/jonathan/story-annotations/internal/segment"
)

var (
	segmentFile    string
	segmentSection string
	segmentJSON    bool
	segmentVerbose bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Show how a document's sections split into marked runs",
	Long: `Read an annotated document file (see schemas/annotations.schema.json) and print the
segments each section renders as, with the margin notes and any annotation dropped
because it overlaps an earlier mark.`,
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentFile, "file", "f", "", "Path to the annotated document JSON (required)")
	segmentCmd.Flags().StringVar(&segmentSection, "section", "", "Only this section key")
	segmentCmd.Flags().BoolVar(&segmentJSON, "json", false, "Print segments as JSON")
	segmentCmd.Flags().BoolVarP(&segmentVerbose, "verbose", "v", false, "List every mark and note")
	_ = segmentCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(segmentCmd)
}

type sectionSegments struct {
	Key      string            `json:"key"`
	Segments []segment.Segment `json:"segments"`
}

func runSegment(cmd *cobra.Command, _ []string) error {
	f, err := document.LoadFile(segmentFile)
	if err != nil {
		return err
	}

	var results []sectionSegments
	for _, s := range f.Sections {
		if segmentSection != "" && s.Key != segmentSection {
			continue
		}
		anns := annotation.ForSection(f.Annotations, s.Key)
		results = append(results, sectionSegments{Key: s.Key, Segments: segment.Split(s.Text, anns)})
	}
	if segmentSection != "" && len(results) == 0 {
		return fmt.Errorf("section %q not found", segmentSection)
	}

	out := cmd.OutOrStdout()
	if segmentJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	printer := observability.NewPrinter(out, segmentVerbose)
	for _, r := range results {
		s, _ := f.Section(r.Key)
		anns := annotation.ForSection(f.Annotations, r.Key)
		printer.PrintSegments(r.Key, s.Text, r.Segments, anns)
		printer.PrintMargin(r.Key, anns)
	}
	return nil
}
