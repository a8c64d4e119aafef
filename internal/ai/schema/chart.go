package schema

import (
	"fmt"
	"sort"
	"strings"
)

type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

func (t ChartType) Valid() bool {
	switch t {
	case ChartBar, ChartLine, ChartPie:
		return true
	}
	return false
}

// Record is one row of chart data keyed by field name.
type Record map[string]Value

// SeriesConfig describes how one data field is rendered.
type SeriesConfig struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// ChartSpec is a renderer-agnostic chart: a type, its data, and a rendering
// config keyed by the data fields it plots.
type ChartSpec struct {
	Type   ChartType               `json:"type"`
	Data   []Record                `json:"data"`
	Config map[string]SeriesConfig `json:"config"`
}

// Validate enforces that every config key names a field present in at least
// one data record.
func (c *ChartSpec) Validate() error {
	if c == nil {
		return nil
	}
	if !c.Type.Valid() {
		return fmt.Errorf("chart.type %q is not one of bar, line, pie", c.Type)
	}
	if len(c.Data) == 0 {
		return fmt.Errorf("chart.data is empty")
	}
	if len(c.Config) == 0 {
		return fmt.Errorf("chart.config is empty")
	}
	fields := c.Fields()
	var missing []string
	for key, sc := range c.Config {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
		if strings.TrimSpace(sc.Label) == "" {
			return fmt.Errorf("chart.config[%s].label is empty", key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("chart.config keys not found in chart.data: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Fields returns the union of keys across all records.
func (c *ChartSpec) Fields() map[string]struct{} {
	out := map[string]struct{}{}
	if c == nil {
		return out
	}
	for _, r := range c.Data {
		for k := range r {
			out[k] = struct{}{}
		}
	}
	return out
}
