package models

import (
	"fmt"
	"strings"
)

// RawRecord is a single bill-data row as exported by the utility: every field is a string
type RawRecord map[string]string

// Common record fields
const (
	FieldID         = "id"
	FieldMonth      = "month"
	FieldYear       = "year"
	FieldBuildingID = "building_id"
)

// Commodity identifies the consumption category being charted
type Commodity int

const (
	Electricity Commodity = iota
	Water
	Gas
)

// Descriptor holds the static field mapping and labels for a commodity
type Descriptor struct {
	Kind       Commodity
	Name       string
	ValueField string
	YAxisLabel string
	TitleLabel string
	Unit       string
}

var descriptors = [...]Descriptor{
	Electricity: {
		Kind:       Electricity,
		Name:       "electricity",
		ValueField: "k_wh_consumption",
		YAxisLabel: "(kwh)",
		TitleLabel: "Electricity Bill Data",
		Unit:       "kWh",
	},
	Water: {
		Kind:       Water,
		Name:       "water",
		ValueField: "m_3_consumption",
		YAxisLabel: "(meters cubed)",
		TitleLabel: "Water Bill Data",
		Unit:       "m³",
	},
	Gas: {
		Kind:       Gas,
		Name:       "gas",
		ValueField: "g_j_consumption",
		YAxisLabel: "(GJ)",
		TitleLabel: "Gas Bill Data",
		Unit:       "GJ",
	},
}

// Commodities returns every known commodity in display order
func Commodities() []Commodity {
	return []Commodity{Electricity, Water, Gas}
}

// Valid reports whether c is one of the known commodities
func (c Commodity) Valid() bool {
	return c >= 0 && int(c) < len(descriptors)
}

// Descriptor returns the descriptor row for c
func (c Commodity) Descriptor() (Descriptor, bool) {
	if !c.Valid() {
		return Descriptor{}, false
	}
	return descriptors[c], true
}

func (c Commodity) String() string {
	if !c.Valid() {
		return fmt.Sprintf("commodity(%d)", int(c))
	}
	return descriptors[c].Name
}

// ParseCommodity parses a commodity name (case-insensitive)
func ParseCommodity(s string) (Commodity, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, d := range descriptors {
		if d.Name == name {
			return d.Kind, nil
		}
	}
	return 0, fmt.Errorf("unknown commodity: %s (available: electricity, water, gas)", s)
}

// ParseCommodities parses a commodity name or "all"
func ParseCommodities(s string) ([]Commodity, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return Commodities(), nil
	}
	c, err := ParseCommodity(s)
	if err != nil {
		return nil, err
	}
	return []Commodity{c}, nil
}
