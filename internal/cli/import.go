package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/biolens/internal/store"
)

// importCommand creates the import command for loading a JSON experiment
// file into the configured MongoDB collection.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [experiments.json]",
		Short: "Import an experiment file into MongoDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runImport(ctx context.Context, file string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	fs, err := store.NewFileStore(file)
	if err != nil {
		return err
	}
	records, err := fs.Load(ctx)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Importing %d records...", len(records)))
	spinner.Start()

	ms, err := store.NewMongoStore(ctx, store.MongoConfig{
		URI:        cfg.Store.Mongo.URI,
		Database:   cfg.Store.Mongo.Database,
		Collection: cfg.Store.Mongo.Collection,
	})
	if err != nil {
		spinner.StopWithError("Import failed")
		return err
	}
	defer ms.Close(ctx)

	if err := ms.Import(ctx, records); err != nil {
		spinner.StopWithError("Import failed")
		return err
	}
	spinner.Stop()

	printSuccess("Imported %d records", len(records))
	printDetail("Collection: %s.%s", cfg.Store.Mongo.Database, cfg.Store.Mongo.Collection)
	return nil
}
