package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corey/hscd/internal/app"
	"github.com/corey/hscd/internal/domain/explorer"
	"github.com/corey/hscd/internal/domain/grapher"
	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
	"github.com/spf13/cobra"
)

var (
	queryMinScore  float64
	queryMax       int
	querySteps     int
	querySort      string
	queryAsc       bool
	queryLat       float64
	queryLng       float64
	queryWalk      float64
	queryPreset    string
	queryGraph     bool
	queryLocal     bool
	queryRelative  bool
	queryCountOnly bool
	queryTimeout   time.Duration
)

var queryCmd = &cobra.Command{
	Use:   "query [feature=weight ...]",
	Short: "Rank records by feature weights",
	Long: "Scores every record as the dot product of its ratings and the given weights.\n" +
		"Weights range over [-1, 1]; features left out default to 0.\n\n" +
		"  hscd query delicious=1 affordable=0.5 --min-score 0.4\n" +
		"  hscd query --preset \"cheap eats\" --graph",
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.Float64Var(&queryMinScore, "min-score", 0, "Minimum score a record needs to match")
	f.IntVarP(&queryMax, "max", "n", 0, "Maximum items to list (0 = configured default)")
	f.IntVar(&querySteps, "steps", 0, "Hint sweep steps per feature (0 = configured default)")
	f.StringVar(&querySort, "sort", search.SortByScore, "Sort key: score or name")
	f.BoolVar(&queryAsc, "asc", false, "Sort ascending")
	f.Float64Var(&queryLat, "lat", 0, "Latitude for the walking distance filter")
	f.Float64Var(&queryLng, "lng", 0, "Longitude for the walking distance filter")
	f.Float64Var(&queryWalk, "walk", 0, "Walking distance in km from --lat/--lng (0 = off)")
	f.StringVar(&queryPreset, "preset", "", "Start from a saved preset")
	f.BoolVar(&queryGraph, "graph", false, "Show the match density for every feature")
	f.BoolVar(&queryLocal, "local-scale", false, "Scale each density strip on its own")
	f.BoolVar(&queryRelative, "relative-scale", false, "Scale densities from the smallest count instead of zero")
	f.BoolVarP(&queryCountOnly, "count", "c", false, "Only print the match count")
	f.DurationVar(&queryTimeout, "timeout", 10*time.Second, "Query timeout")
}

// parseVector turns feature=weight arguments into a query vector.
func parseVector(args []string) (search.QueryVector, error) {
	q := make(search.QueryVector, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected feature=weight, got %q", arg)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %q: %w", name, err)
		}
		q[name] = w
	}
	return q, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	root := projectRoot()

	features, err := parseVector(args)
	if err != nil {
		return err
	}

	b, err := openBackend(root, commandLine(cmd, args))
	if err != nil {
		return err
	}
	defer b.Close()

	if queryPreset != "" {
		presets, err := b.Presets()
		if err != nil {
			return err
		}
		merged, err := applyPreset(presets, queryPreset, features)
		if err != nil {
			return err
		}
		features = merged
	}

	cfg, err := app.LoadConfig(app.NewPaths(root).Config)
	if err != nil {
		return err
	}
	graphCfg := cfg.Graph
	graphCfg.UseLocalScale = graphCfg.UseLocalScale || queryLocal
	graphCfg.UseRelativeScale = graphCfg.UseRelativeScale || queryRelative

	base := ports.QueryRequest{
		MinScore:   queryMinScore,
		HintSteps:  querySteps,
		MaxResults: queryMax,
		SortKey:    querySort,
		SortAsc:    queryAsc,
	}
	if queryWalk > 0 {
		base.Geo = &search.Geo{Latitude: queryLat, Longitude: queryLng}
		base.WalkingDist = queryWalk
	}

	bounds := grapher.Rect{Width: float64(graphWidth), Height: 220}
	session, err := explorer.NewSession(b, graphCfg, bounds, base)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := session.Search(ctx, features); err != nil {
		return err
	}

	resp := session.Last()
	fmt.Print(formatQuery(resp, queryCountOnly))
	if queryGraph && !queryCountOnly {
		fmt.Print(formatGraph(session.Graph()))
	}
	return nil
}

// applyPreset overlays explicit weights on the named preset.
func applyPreset(presets []ports.Preset, name string, explicit search.QueryVector) (search.QueryVector, error) {
	for _, p := range presets {
		if p.Name != name {
			continue
		}
		merged := p.Features.Clone()
		for f, w := range explicit {
			merged[f] = w
		}
		return merged, nil
	}
	return nil, fmt.Errorf("unknown preset %q", name)
}
