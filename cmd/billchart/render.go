package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/internal/config"
	"github.com/jgoulah/billchart/internal/database"
	"github.com/jgoulah/billchart/pkg/models"
)

var (
	renderFrom   string
	renderTo     string
	renderWidth  float64
	renderHeight float64
	renderFormat string
	renderOut    string
)

var renderCmd = &cobra.Command{
	Use:   "render [electricity|water|gas|all]",
	Short: "Render bill data charts to files",
	Long: `Renders a line chart of stored consumption for each commodity and writes
<out>/<commodity>.<format>. Commodities without data are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderFrom, "from", "", "Start of the time axis (YYYY-MM-DD); invalid dates are ignored")
	renderCmd.Flags().StringVar(&renderTo, "to", "", "End of the time axis (YYYY-MM-DD); invalid dates are ignored")
	renderCmd.Flags().Float64Var(&renderWidth, "width", 0, "Chart width (default from config, then 960)")
	renderCmd.Flags().Float64Var(&renderHeight, "height", 0, "Fixed chart height (default from config)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "png", "Output format (png or svg)")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "Output directory (default from config chart.output_dir)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	kinds, err := parseCommodityArg(args)
	if err != nil {
		return err
	}
	format, err := chart.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	layout, err := layoutFromFlags(cfg)
	if err != nil {
		return err
	}

	outDir := renderOut
	if outDir == "" {
		outDir = cfg.GetOutputDir()
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	renderer := chart.NewRenderer(layout, logrus.StandardLogger())
	filter := chart.DateFilter{From: chart.ParseFilterDate(renderFrom), To: chart.ParseFilterDate(renderTo)}

	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			path, res, size, err := renderToFile(db, renderer, kind, filter, format, outDir)
			if errors.Is(err, chart.ErrEmptyDomain) {
				fmt.Printf("⚠ No data to chart for %s, skipping\n", kind)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("✓ Wrote %s (%d points, %s)\n", path, res.Stats.Points, humanize.Bytes(uint64(size)))
			return nil
		})
	}
	return g.Wait()
}

// layoutFromFlags applies --width/--height over the configured layout
func layoutFromFlags(cfg *config.Config) (chart.Layout, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return chart.Layout{}, fmt.Errorf("chart config: %w", err)
	}
	if renderWidth > 0 {
		layout.Width = renderWidth
	}
	if renderHeight > 0 {
		layout.Height = renderHeight
		layout.Strategy = chart.HeightFixed
	}
	return layout, nil
}

// renderChart draws one commodity's stored records onto a fresh canvas and encodes it
func renderChart(db *database.DB, r *chart.Renderer, kind models.Commodity, filter chart.DateFilter, format chart.Format) ([]byte, chart.Result, error) {
	records, err := db.ListRecords(kind)
	if err != nil {
		return nil, chart.Result{}, fmt.Errorf("listing %s records: %w", kind, err)
	}

	canvas := chart.NewCanvas()
	res, err := r.RenderCommodity(canvas, kind, records, filter)
	if err != nil {
		return nil, res, err
	}

	var buf bytes.Buffer
	if err := chart.Write(canvas, format, &buf); err != nil {
		return nil, res, fmt.Errorf("encoding %s chart: %w", kind, err)
	}
	return buf.Bytes(), res, nil
}

// renderToFile writes <dir>/<commodity>.<format>
func renderToFile(db *database.DB, r *chart.Renderer, kind models.Commodity, filter chart.DateFilter, format chart.Format, dir string) (string, chart.Result, int, error) {
	data, res, err := renderChart(db, r, kind, filter, format)
	if err != nil {
		return "", res, 0, err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", kind, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", res, 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, res, len(data), nil
}
