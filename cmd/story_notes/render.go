package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/story-annotations/internal/db"
	"github.com/jonathan/story-annotations/internal/document"
)

var (
	renderFile       string
	renderOut        string
	renderHideStyles bool
	renderHover      string
	renderFromDB     bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an annotated document to HTML",
	Long: `Render an annotated document file as the article markup the web view uses:
marked sections, margin notes and asides, and the add-aside forms.

With --from-db the annotations are read from DATABASE_URL for the file's owner
instead of from the file.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "Path to the annotated document JSON (required)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output HTML path (default stdout)")
	renderCmd.Flags().BoolVar(&renderHideStyles, "hide-styles", false, "Render marks without emphasis")
	renderCmd.Flags().StringVar(&renderHover, "hover", "", "Annotation UUID to render as hovered")
	renderCmd.Flags().BoolVar(&renderFromDB, "from-db", false, "Load annotations from the database")
	_ = renderCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) (err error) {
	_, logger, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := document.LoadFile(renderFile)
	if err != nil {
		return err
	}

	var hovered uuid.UUID
	if renderHover != "" {
		if hovered, err = uuid.Parse(renderHover); err != nil {
			return fmt.Errorf("invalid --hover annotation ID: %w", err)
		}
	}

	if renderFromDB {
		var database *db.DB
		database, _, err = openDatabase(cmd)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, database.Close()) }()

		f.Annotations, err = database.ListAnnotations(commandContext(cmd), f.OwnerType, f.OwnerID)
		if err != nil {
			return err
		}
	}

	article := document.Article(f.Owner(), document.Options{
		Title:      f.Title,
		ShowStyles: !renderHideStyles,
		HoveredID:  hovered,
		Logger:     logger,
	}, f.Body)

	var out io.Writer = cmd.OutOrStdout()
	if renderOut != "" {
		file, createErr := os.Create(renderOut)
		if createErr != nil {
			return fmt.Errorf("failed to create %s: %w", renderOut, createErr)
		}
		defer func() { err = multierr.Append(err, file.Close()) }()
		out = file
	}

	if err := html.Render(out, article); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	logger.Debug("rendered document",
		zap.String("owner_type", string(f.OwnerType)),
		zap.Stringer("owner_id", f.OwnerID),
		zap.Int("annotations", len(f.Annotations)),
	)
	return nil
}
