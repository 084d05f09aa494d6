package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/pkg/models"
)

var listCommodity string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored bill data",
	Long:  `Displays the stored monthly consumption of each commodity, oldest first.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listCommodity, "commodity", "all", "Filter by commodity (electricity, water, gas or all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	kinds, err := models.ParseCommodities(listCommodity)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, kind := range kinds {
		records, err := db.ListRecords(kind)
		if err != nil {
			return fmt.Errorf("listing data for %s: %w", kind, err)
		}
		if len(records) == 0 {
			fmt.Printf("No data found for %s\n", kind)
			continue
		}

		desc, _ := kind.Descriptor()
		series, malformed := chart.Normalize(records, desc)
		series.Sort()

		fmt.Printf("\n%s:\n", desc.TitleLabel)
		fmt.Println("----------------------------------------")
		fmt.Printf("%-10s  %16s\n", "Period", desc.Unit)
		fmt.Println("----------------------------------------")

		var total float64
		for _, p := range series {
			if p.Malformed() {
				continue
			}
			fmt.Printf("%-10s  %16s\n", p.Date.Format("2006-01"), humanize.CommafWithDigits(p.Value, 2))
			total += p.Value
		}

		fmt.Println("----------------------------------------")
		fmt.Printf("Total: %s %s (%d records)\n", humanize.CommafWithDigits(total, 2), desc.Unit, len(records))
		if malformed > 0 {
			fmt.Printf("⚠ %d records with an unparseable date or consumption\n", malformed)
		}
	}

	return nil
}
