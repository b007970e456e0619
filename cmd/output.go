package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"displayctl/internal/config"
)

// render writes v as JSON or YAML, or calls table for the default format.
// Tables are column aligned on a terminal and tab separated otherwise.
func render(w io.Writer, format string, v any, table func(w io.Writer)) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
	table(w)
	return nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// parseLevel accepts a fraction such as 0.4 or a percentage such as 40%.
func parseLevel(arg string) (float64, error) {
	s := strings.TrimSpace(arg)
	scale := 1.0
	if trimmed, ok := strings.CutSuffix(s, "%"); ok {
		s = trimmed
		scale = 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid brightness %q: want a fraction like 0.5 or a percentage like 50%%", arg)
	}
	return v / scale, nil
}
