// Command bench runs every broad-phase variant on the same bodies and
// prints a comparison table.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/broadphase"
	"github.com/tomz197/broadphase/internal/config"
)

var (
	configPath = flag.String("config", "", "TOML config file")
	steps      = flag.Int("steps", 300, "Steps per variant")
	bodies     = flag.Int("bodies", 0, "Body count (0 keeps the configured count)")
	seed       = flag.Int64("seed", 1, "Placement seed shared by every variant")
	variants   = flag.String("variants", "", "Comma separated variants (default: all)")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "bench"})

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	if *bodies > 0 {
		cfg.BodyCount = *bodies
	}
	cfg.Seed = *seed
	logger.SetLevel(cfg.Level())

	kinds, err := parseKinds(*variants)
	if err != nil {
		logger.Fatal("invalid variants", "err", err)
	}
	if *steps < 1 {
		logger.Fatal("steps must be positive", "steps", *steps)
	}

	quiet := log.New(io.Discard)
	results := make([]result, 0, len(kinds))
	for _, kind := range kinds {
		logger.Info("running", "variant", kind.DisplayName(), "bodies", cfg.BodyCount, "steps", *steps)
		res, err := run(cfg, kind, *steps, quiet)
		if err != nil {
			logger.Fatal("run failed", "variant", kind, "err", err)
		}
		if res.Missed > 0 {
			logger.Warn("variant missed overlapping pairs", "variant", kind.DisplayName(), "missed", res.Missed)
		}
		results = append(results, res)
	}

	r := lipgloss.NewRenderer(os.Stdout)
	fmt.Fprintf(os.Stdout, "%d bodies, radius %v, %vx%v world, %d steps\n",
		cfg.BodyCount, cfg.BodyRadius, cfg.WorldWidth, cfg.WorldHeight, *steps)
	fmt.Fprintln(os.Stdout, report(r, results))

	for _, res := range results {
		if res.Missed > 0 {
			os.Exit(1)
		}
	}
}

// parseKinds parses a comma separated variant list. Empty means all.
func parseKinds(s string) ([]broadphase.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return broadphase.Kinds, nil
	}
	var kinds []broadphase.Kind
	for _, name := range strings.Split(s, ",") {
		kind, err := broadphase.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
