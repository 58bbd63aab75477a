package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/story-annotations/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate annotated document files against the schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		if _, err := schemas.ValidateDocumentFile(path); err != nil {
			failed++
			var validationErr *schemas.ValidationError
			if errors.As(err, &validationErr) {
				_, _ = fmt.Fprintf(out, "✗ %s\n", path)
				for _, fe := range validationErr.Errors {
					_, _ = fmt.Fprintf(out, "    %s: %s\n", fe.Field, fe.Message)
				}
				continue
			}
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "✓ %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
