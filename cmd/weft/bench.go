package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftdom/weft/pkg/sched"
	"github.com/weftdom/weft/pkg/vdom"
	"github.com/weftdom/weft/pkg/vtest"
)

type benchProfile struct {
	Name        string
	Iterations  int
	MaxDepth    int
	MaxChildren int
	Keyed       bool
}

var benchProfiles = map[string]benchProfile{
	"fast": {
		Name:        "fast",
		Iterations:  1_000,
		MaxDepth:    4,
		MaxChildren: 5,
		Keyed:       true,
	},
	"standard": {
		Name:        "standard",
		Iterations:  10_000,
		MaxDepth:    6,
		MaxChildren: 8,
		Keyed:       true,
	},
	"wide": {
		Name:        "wide",
		Iterations:  5_000,
		MaxDepth:    3,
		MaxChildren: 50,
		Keyed:       true,
	},
	"unkeyed": {
		Name:        "unkeyed",
		Iterations:  10_000,
		MaxDepth:    6,
		MaxChildren: 8,
		Keyed:       false,
	},
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		seed        uint64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark diff and apply in-process",
		Long: `Run the differ and applier against generated trees and report
throughput and latency percentiles.

Each iteration mutates the previous tree, diffs it against the
committed one and applies the resulting patches, the same cycle a
commit performs.

Profiles: fast, standard, wide, unkeyed.

Examples:
  weft bench
  weft bench --profile=wide
  weft bench --seed=7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := benchProfiles[profileName]
			if !ok {
				return fmt.Errorf("unknown profile %q", profileName)
			}
			return runBench(p, seed)
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "P", "standard", "Benchmark profile")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Tree generator seed")

	return cmd
}

func runBench(p benchProfile, seed uint64) error {
	gen := vtest.NewGenerator(seed)
	gen.MaxDepth = p.MaxDepth
	gen.MaxChildren = p.MaxChildren
	gen.Keyed = p.Keyed

	collector := sched.NewCollector()

	current := gen.Tree()
	tree := vdom.NewTree(nil)
	baseline, err := vdom.Diff(nil, current)
	if err != nil {
		return err
	}
	if err := tree.Apply(baseline); err != nil {
		return err
	}

	printBanner()
	info("profile %s: %d iterations, depth %d, children %d, keyed %v",
		p.Name, p.Iterations, p.MaxDepth, p.MaxChildren, p.Keyed)

	var totalPatches int
	start := time.Now()
	for i := 0; i < p.Iterations; i++ {
		next := gen.Mutate(current)

		iterStart := time.Now()
		patches, err := vdom.Diff(current, next)
		if err != nil {
			return fmt.Errorf("iteration %d: diff: %w", i, err)
		}
		if err := tree.Apply(patches); err != nil {
			return fmt.Errorf("iteration %d: apply: %w", i, err)
		}
		collector.RecordCommit(len(patches), time.Since(iterStart))

		totalPatches += len(patches)
		current = next
	}
	elapsed := time.Since(start)

	stats := collector.Snapshot()
	fmt.Println()
	info("total:        %v", elapsed)
	info("commits/sec:  %.0f", float64(p.Iterations)/elapsed.Seconds())
	info("patches:      %d (%.1f per commit)", totalPatches,
		float64(totalPatches)/float64(p.Iterations))
	info("commit p50:   %v", stats.CommitP50)
	info("commit p99:   %v", stats.CommitP99)
	fmt.Println()

	return nil
}
