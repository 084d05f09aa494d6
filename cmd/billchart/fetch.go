package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/billchart/internal/source"
	"github.com/jgoulah/billchart/pkg/models"
)

var (
	fetchURL     string
	fetchReplace bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [electricity|water|gas|all]",
	Short: "Fetch bill data from a bill-data API",
	Long: `Retrieves records from <api_url>/<commodity>-bill-data and stores them in the database.
Commodities that fail to fetch are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "API base URL (default from config source.api_url)")
	fetchCmd.Flags().BoolVar(&fetchReplace, "replace", false, "Delete stored records of the commodity before storing")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	baseURL := fetchURL
	if baseURL == "" {
		baseURL = cfg.Source.APIURL
	}
	if baseURL == "" {
		return fmt.Errorf("no API URL configured (set source.api_url or --url)")
	}

	kinds, err := parseCommodityArg(args)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	client := source.NewClient(baseURL, cfg.GetFetchTimeout())
	fetched := make([][]models.RawRecord, len(kinds))
	failed := make([]error, len(kinds))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, kind := range kinds {
		g.Go(func() error {
			records, err := client.FetchRecords(ctx, kind)
			if err != nil {
				// a failed commodity never reaches the store
				logrus.WithError(err).WithField("commodity", kind).Warn("fetch failed")
				failed[i] = err
				return nil
			}
			fetched[i] = records
			return nil
		})
	}
	g.Wait()

	stored := 0
	for i, kind := range kinds {
		if failed[i] != nil {
			fmt.Printf("⚠ Failed to fetch %s: %v\n", kind, failed[i])
			continue
		}
		added, err := storeRecords(db, kind, fetched[i], fetchReplace)
		if err != nil {
			return err
		}
		stored++
		total, err := db.Count(kind)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Fetched %s: %s new of %s records (%s stored)\n",
			kind, humanize.Comma(int64(added)), humanize.Comma(int64(len(fetched[i]))), humanize.Comma(int64(total)))
	}

	if stored == 0 {
		return fmt.Errorf("no commodity could be fetched from %s", baseURL)
	}
	return nil
}
