package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/internal/database"
	"github.com/jgoulah/billchart/internal/publisher"
	"github.com/jgoulah/billchart/pkg/models"
)

var publishKind string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish charts and latest readings to MQTT and Home Assistant",
	Long: `Renders a PNG chart of each commodity and publishes it, retained, to <prefix>/<commodity>/chart.
The latest monthly reading goes to <prefix>/<commodity>/state and, when enabled, to the
Home Assistant entity <entity_prefix>_<commodity>.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishKind, "commodity", "all", "Commodity to publish (electricity, water, gas or all)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.MQTT.Enabled && !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
	}

	kinds, err := models.ParseCommodities(publishKind)
	if err != nil {
		return err
	}
	layout, err := cfg.Layout()
	if err != nil {
		return fmt.Errorf("chart config: %w", err)
	}

	pub, err := publisher.New(cfg.MQTT, cfg.HomeAssistant)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return publishCommodities(db, pub, chart.NewRenderer(layout, logrus.StandardLogger()), kinds)
}

// publishCommodities renders and publishes each commodity concurrently
func publishCommodities(db *database.DB, pub *publisher.Publisher, r *chart.Renderer, kinds []models.Commodity) error {
	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			err := publishCommodity(db, pub, r, kind)
			if errors.Is(err, chart.ErrEmptyDomain) {
				fmt.Printf("⚠ No data to publish for %s, skipping\n", kind)
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func publishCommodity(db *database.DB, pub *publisher.Publisher, r *chart.Renderer, kind models.Commodity) error {
	png, res, err := renderChart(db, r, kind, chart.DateFilter{}, chart.FormatPNG)
	if err != nil {
		return err
	}

	records, err := db.ListRecords(kind)
	if err != nil {
		return fmt.Errorf("listing %s records: %w", kind, err)
	}
	desc, _ := kind.Descriptor()
	series, _ := chart.Normalize(records, desc)
	series.Sort()
	reading, hasReading := publisher.LatestReading(kind, series)

	if pub.MQTTEnabled() {
		if err := pub.PublishChart(kind, png); err != nil {
			return err
		}
		fmt.Printf("✓ Published %s chart to %s (%s, %d points)\n", kind, pub.ChartTopic(kind), humanize.Bytes(uint64(len(png))), res.Stats.Points)
		if hasReading {
			if err := pub.PublishState(reading); err != nil {
				return err
			}
		}
	}

	if pub.HAEnabled() && hasReading {
		if err := pub.PublishHA(reading); err != nil {
			return fmt.Errorf("publishing %s to Home Assistant: %w", kind, err)
		}
		fmt.Printf("✓ Published %s reading %s %s (%s) to %s\n",
			kind, humanize.CommafWithDigits(reading.Value, 2), reading.Unit, reading.Period.Format("2006-01"), pub.EntityID(kind))
	}
	return nil
}
