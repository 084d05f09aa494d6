package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/internal/publisher"
	"github.com/jgoulah/billchart/internal/source"
	"github.com/jgoulah/billchart/internal/watcher"
	"github.com/jgoulah/billchart/pkg/models"
)

var (
	watchFormat  string
	watchPublish bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-import and re-render when CSV exports change",
	Long: `Watches the CSV files configured under source.csv. When a file changes it is
re-imported (replacing that commodity's records) and its chart is re-rendered to
chart.output_dir, and optionally published.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFormat, "format", "png", "Output format (png or svg)")
	watchCmd.Flags().BoolVar(&watchPublish, "publish", false, "Also publish changed commodities to MQTT / Home Assistant")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	format, err := chart.ParseFormat(watchFormat)
	if err != nil {
		return err
	}
	layout, err := cfg.Layout()
	if err != nil {
		return fmt.Errorf("chart config: %w", err)
	}
	files := configuredCSVFiles(cfg)
	if len(files) == 0 {
		return fmt.Errorf("no CSV files configured under source.csv")
	}
	if err := os.MkdirAll(cfg.GetOutputDir(), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var pub *publisher.Publisher
	if watchPublish {
		pub, err = publisher.New(cfg.MQTT, cfg.HomeAssistant)
		if err != nil {
			return fmt.Errorf("creating publisher: %w", err)
		}
		defer pub.Close()
	}

	w, err := watcher.New(files, cfg.GetDebounce(), logrus.StandardLogger())
	if err != nil {
		return err
	}
	defer w.Close()

	renderer := chart.NewRenderer(layout, logrus.StandardLogger())
	refresh := func(kind models.Commodity) {
		log := logrus.WithField("commodity", kind)

		records, err := source.LoadCSVFile(files[kind])
		if err != nil {
			log.WithError(err).Warn("reload failed")
			return
		}
		if _, err := storeRecords(db, kind, records, true); err != nil {
			log.WithError(err).Warn("store failed")
			return
		}

		path, res, _, err := renderToFile(db, renderer, kind, chart.DateFilter{}, format, cfg.GetOutputDir())
		if errors.Is(err, chart.ErrEmptyDomain) {
			fmt.Printf("⚠ %s changed but has no data to chart\n", kind)
			return
		}
		if err != nil {
			log.WithError(err).Warn("render failed")
			return
		}
		fmt.Printf("✓ %s changed: %d points, wrote %s\n", kind, res.Stats.Points, path)

		if pub != nil {
			if err := publishCommodity(db, pub, renderer, kind); err != nil {
				log.WithError(err).Warn("publish failed")
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for kind, path := range files {
		fmt.Printf("Watching %s for %s\n", path, kind)
	}
	return w.Run(ctx, refresh)
}
