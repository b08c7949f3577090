package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// benchGraph is one synthetic dependency graph: a writable root and a
// single derived sink whose value depends on everything in between.
type benchGraph struct {
	root *jotai.WritableAtom[int, int]
	sink *jotai.Atom[int]
}

type graphResult struct {
	Shape           string  `json:"shape"`
	Size            int     `json:"size"`
	ColdReadNS      int64   `json:"cold_read_ns"`
	WarmReadsPerSec float64 `json:"warm_reads_per_sec"`
	WriteReadPerSec float64 `json:"write_read_per_sec"`
}

func graphCmd() *cobra.Command {
	var (
		size       int
		iterations int
		shapes     []string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Benchmark chain, fanout and diamond dependency graphs",
		Long: `Builds synthetic dependency graphs of the given size and measures:

  cold read   first read of the sink (computes the whole graph)
  warm reads  repeated reads of the fresh sink (cache hits)
  write+read  a root write followed by a sink read (invalidate + recompute)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []graphResult
			for _, shape := range shapes {
				build, ok := builders[shape]
				if !ok {
					return fmt.Errorf("unknown shape %q (have: chain, fanout, diamond)", shape)
				}
				results = append(results, runGraphBench(shape, size, iterations, build))
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printResults(results)
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 100, "Number of atoms per graph")
	cmd.Flags().IntVar(&iterations, "iterations", 10000, "Iterations per measurement")
	cmd.Flags().StringSliceVar(&shapes, "shapes", []string{"chain", "fanout", "diamond"}, "Graph shapes to benchmark")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")

	return cmd
}

var builders = map[string]func(size int) benchGraph{
	"chain":   buildChain,
	"fanout":  buildFanout,
	"diamond": buildDiamond,
}

// buildChain links size atoms in a straight line: each one reads only
// its predecessor.
func buildChain(size int) benchGraph {
	root := jotai.NewAtom(1, jotai.WithLabel("root"))
	prev := &root.Atom
	for i := 1; i < size; i++ {
		dep := prev
		prev = jotai.NewDerived(func(g jotai.Getter) (int, error) {
			n, err := jotai.Get(g, dep)
			return n + 1, err
		})
	}
	return benchGraph{root: root, sink: prev}
}

// buildFanout hangs size-2 leaves off one root and sums them in a
// single sink.
func buildFanout(size int) benchGraph {
	root := jotai.NewAtom(1, jotai.WithLabel("root"))
	width := size - 2
	if width < 1 {
		width = 1
	}
	leaves := make([]*jotai.Atom[int], width)
	for i := range leaves {
		offset := i
		leaves[i] = jotai.NewDerived(func(g jotai.Getter) (int, error) {
			n, err := jotai.Get(g, root)
			return n + offset, err
		})
	}
	sink := jotai.NewDerived(func(g jotai.Getter) (int, error) {
		total := 0
		for _, leaf := range leaves {
			n, err := jotai.Get(g, leaf)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}, jotai.WithLabel("sink"))
	return benchGraph{root: root, sink: sink}
}

// buildDiamond stacks size/3 diamonds: each layer splits the previous
// value into two branches and joins them again.
func buildDiamond(size int) benchGraph {
	root := jotai.NewAtom(1, jotai.WithLabel("root"))
	prev := &root.Atom
	layers := size / 3
	if layers < 1 {
		layers = 1
	}
	for i := 0; i < layers; i++ {
		in := prev
		left := jotai.NewDerived(func(g jotai.Getter) (int, error) {
			n, err := jotai.Get(g, in)
			return n + 1, err
		})
		right := jotai.NewDerived(func(g jotai.Getter) (int, error) {
			n, err := jotai.Get(g, in)
			return n * 2, err
		})
		prev = jotai.NewDerived(func(g jotai.Getter) (int, error) {
			l, err := jotai.Get(g, left)
			if err != nil {
				return 0, err
			}
			r, err := jotai.Get(g, right)
			return l + r, err
		})
	}
	return benchGraph{root: root, sink: prev}
}

func runGraphBench(shape string, size, iterations int, build func(int) benchGraph) graphResult {
	g := build(size)
	store := jotai.NewStore()
	defer store.Close()

	coldStart := time.Now()
	mustRead(store, g.sink)
	cold := time.Since(coldStart)

	warmStart := time.Now()
	for i := 0; i < iterations; i++ {
		mustRead(store, g.sink)
	}
	warm := time.Since(warmStart)

	writeStart := time.Now()
	for i := 0; i < iterations; i++ {
		if err := jotai.Set(store, g.root, i); err != nil {
			panic(err)
		}
		mustRead(store, g.sink)
	}
	writeRead := time.Since(writeStart)

	return graphResult{
		Shape:           shape,
		Size:            size,
		ColdReadNS:      cold.Nanoseconds(),
		WarmReadsPerSec: perSecond(iterations, warm),
		WriteReadPerSec: perSecond(iterations, writeRead),
	}
}

func mustRead(store *jotai.Store, sink *jotai.Atom[int]) {
	if _, err := jotai.Get(store, sink); err != nil {
		panic(err)
	}
}

func perSecond(n int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}

func printResults(results []graphResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHAPE\tSIZE\tCOLD READ\tWARM READS/S\tWRITE+READ/S")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%.0f\t%.0f\n",
			r.Shape, r.Size, time.Duration(r.ColdReadNS), r.WarmReadsPerSec, r.WriteReadPerSec)
	}
	w.Flush()
	fmt.Println(strings.Repeat("-", 60))
}
