package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/domain/grapher"
	"github.com/corey/hscd/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

// graphWidth is the pixel width the CLI lays the graph out in.
const graphWidth = 800

// densityRamp runs from empty to dense.
const densityRamp = " .:-=+*#%@"

// formatQuery formats a QueryResponse for terminal display.
//
//	⚡ 42 matches │ min 0.30 │ Xms
//	   0.912  Sushi Dai  /r/1
func formatQuery(resp *ports.QueryResponse, countOnly bool) string {
	if resp == nil {
		return ""
	}
	if countOnly {
		return fmt.Sprintf("%s⚡ %d matches%s │ %s\n", colorBold, resp.Count, colorReset, resp.Elapsed)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d matches%s │ min %.2f │ %s\n",
		colorBold, resp.Count, colorReset, resp.MinScore, resp.Elapsed))
	for _, item := range resp.Items {
		sb.WriteString(fmt.Sprintf("  %s%7.3f%s  %s", colorGreen, item.Score, colorReset, item.Name))
		if item.URL != "" {
			sb.WriteString(fmt.Sprintf("  %s%s%s", colorGray, item.URL, colorReset))
		}
		sb.WriteString("\n")
	}
	if len(resp.Items) < resp.Count {
		sb.WriteString(fmt.Sprintf("  %s… %d more%s\n", colorGray, resp.Count-len(resp.Items), colorReset))
	}
	return sb.String()
}

// formatGraph renders each column as one line: its weight, then the density
// strip from the range minimum (left) to the maximum (right), with the
// current weight marked by '|'.
//
//	delicious      +1.00  [ .:-=+*#%@|]
func formatGraph(g *grapher.Graph) string {
	var sb strings.Builder
	for _, col := range g.Columns() {
		f := col.Frame()
		cells := make([]byte, len(f.Density))
		for i, stop := range f.Density {
			// Stops run top (max) to bottom (min); darker gray is denser.
			shade := 255 - int(stop.Color.R)
			idx := shade * len(densityRamp) / 256
			cells[len(cells)-1-i] = densityRamp[idx]
		}

		if n := len(cells); n > 0 {
			rng := g.Config().Range
			pos := int(rng.Offset(col.Value()) * float64(n))
			if pos >= n {
				pos = n - 1
			}
			cells[pos] = '|'
		}

		sb.WriteString(fmt.Sprintf("  %s%-14s%s %+5.2f  [%s]\n",
			colorCyan, f.Name, colorReset, col.Value(), string(cells)))
	}
	return sb.String()
}

// formatHealth formats a HealthResult for terminal display.
func formatHealth(h *socket.HealthResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ hscd daemon%s\n", colorBold, colorReset))
	sb.WriteString(fmt.Sprintf("  Status:    %s%s%s\n", colorGreen, h.Status, colorReset))
	sb.WriteString(fmt.Sprintf("  Dataset:   %s\n", h.Dataset))
	sb.WriteString(fmt.Sprintf("  Records:   %d\n", h.RecordCount))
	sb.WriteString(fmt.Sprintf("  Features:  %d\n", h.FeatureCount))
	sb.WriteString(fmt.Sprintf("  Cached:    %d\n", h.CacheEntries))
	sb.WriteString(fmt.Sprintf("  Queries:   %d", h.Queries))
	if h.QueryP50 != "" {
		sb.WriteString(fmt.Sprintf(" (p50 %s)", h.QueryP50))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Uptime:    %s\n", h.Uptime))
	return sb.String()
}

// formatFeatures lists feature names.
func formatFeatures(features []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d features%s\n", colorBold, len(features), colorReset))
	for _, f := range features {
		sb.WriteString(fmt.Sprintf("  %s%s%s\n", colorCyan, f, colorReset))
	}
	return sb.String()
}

// formatPresets lists presets with their weights in name order.
func formatPresets(presets []ports.Preset) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d presets%s\n", colorBold, len(presets), colorReset))
	for _, p := range presets {
		sb.WriteString(fmt.Sprintf("  %s%s%s ", colorMagenta, p.Name, colorReset))
		sb.WriteString(formatVector(p.Features))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatVector(v map[string]float64) string {
	names := make([]string, 0, len(v))
	for n := range v {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, v[n])
	}
	return strings.Join(parts, " ")
}
