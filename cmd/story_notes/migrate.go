package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the annotations table",
	RunE:  runMigrate,
}

var (
	purgeOwnerType string
	purgeOwnerID   string
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every annotation of one owner",
	Long:  `Delete every annotation of a story or derivation, for example after the document itself was deleted.`,
	RunE:  runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeOwnerType, "owner-type", "", "Owner type: story or derivation (required)")
	purgeCmd.Flags().StringVar(&purgeOwnerID, "owner-id", "", "Owner UUID (required)")
	_ = purgeCmd.MarkFlagRequired("owner-type")
	_ = purgeCmd.MarkFlagRequired("owner-id")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(purgeCmd)
}

func openDatabase(cmd *cobra.Command) (*db.DB, *zap.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	database, err := db.Connect(commandContext(cmd), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return database, logger, nil
}

func runMigrate(cmd *cobra.Command, _ []string) (err error) {
	database, logger, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, database.Close()) }()

	if err := database.Migrate(commandContext(cmd)); err != nil {
		return err
	}
	logger.Info("migration complete", zap.String("dialect", string(database.Dialect())))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "annotations table is up to date")
	return nil
}

func runPurge(cmd *cobra.Command, _ []string) (err error) {
	ownerType, ok := annotation.ParseOwnerType(purgeOwnerType)
	if !ok {
		return fmt.Errorf("invalid owner type %q", purgeOwnerType)
	}
	ownerID, err := uuid.Parse(purgeOwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner ID %q: %w", purgeOwnerID, err)
	}

	database, logger, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, database.Close()) }()

	n, err := database.DeleteOwnerAnnotations(commandContext(cmd), ownerType, ownerID)
	if err != nil {
		return err
	}
	logger.Info("purged annotations",
		zap.String("owner_type", string(ownerType)),
		zap.Stringer("owner_id", ownerID),
		zap.Int64("deleted", n),
	)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d annotations\n", n)
	return nil
}
