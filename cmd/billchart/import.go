package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/billchart/internal/config"
	"github.com/jgoulah/billchart/internal/database"
	"github.com/jgoulah/billchart/internal/source"
	"github.com/jgoulah/billchart/pkg/models"
)

var importReplace bool

var importCmd = &cobra.Command{
	Use:   "import <electricity|water|gas|all> [file]",
	Short: "Import bill data from CSV exports",
	Long: `Loads header-keyed CSV exports into the database.
With a single commodity the file argument overrides the path from config (source.csv).
With "all" every commodity that has a configured CSV path is imported.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Delete stored records of the commodity before importing")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	kinds, err := parseCommodityArg(args)
	if err != nil {
		return err
	}
	if len(args) == 2 && len(kinds) != 1 {
		return fmt.Errorf("a file can only be given for a single commodity")
	}

	paths := map[models.Commodity]string{}
	for _, kind := range kinds {
		path := cfg.CSVPath(kind)
		if len(args) == 2 {
			path = args[1]
		}
		if path == "" {
			fmt.Printf("⚠ No CSV file configured for %s, skipping\n", kind)
			continue
		}
		paths[kind] = path
	}
	if len(paths) == 0 {
		return fmt.Errorf("nothing to import")
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Parse files concurrently, store sequentially
	loaded := make([][]models.RawRecord, len(kinds))
	var g errgroup.Group
	for i, kind := range kinds {
		path, ok := paths[kind]
		if !ok {
			continue
		}
		g.Go(func() error {
			records, err := source.LoadCSVFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", kind, err)
			}
			loaded[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, kind := range kinds {
		if _, ok := paths[kind]; !ok {
			continue
		}
		added, err := storeRecords(db, kind, loaded[i], importReplace)
		if err != nil {
			return err
		}
		total, err := db.Count(kind)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Imported %s: %s new of %s records from %s (%s stored)\n",
			kind, humanize.Comma(int64(added)), humanize.Comma(int64(len(loaded[i]))), paths[kind], humanize.Comma(int64(total)))
	}

	return nil
}

// storeRecords inserts records, or replaces the commodity's records atomically
func storeRecords(db *database.DB, kind models.Commodity, records []models.RawRecord, replace bool) (int, error) {
	store := db.InsertRecords
	if replace {
		store = db.ReplaceRecords
	}
	added, err := store(kind, records)
	if err != nil {
		return 0, fmt.Errorf("storing %s: %w", kind, err)
	}
	return added, nil
}

// configuredCSVFiles returns the CSV path of every commodity that has one
func configuredCSVFiles(cfg *config.Config) map[models.Commodity]string {
	files := map[models.Commodity]string{}
	for _, kind := range models.Commodities() {
		if path := cfg.CSVPath(kind); path != "" {
			files[kind] = path
		}
	}
	return files
}
