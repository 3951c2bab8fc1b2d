// Command tsp solves a symmetric TSP instance in parallel and prints one
// machine-readable result line:
//
//	<file>;<graph_size>;<nb_threads>;<max_splitted_tasks>;<time_seconds>;<path>
package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-foundations/taskrunner"
	"github.com/go-foundations/taskrunner/tsp"
)

var log = log15.New("cmd", "tsp")

var rootCmd = &cobra.Command{
	Use:           "tsp <file.tsp> [graph_size] [nb_threads] [max_splitted_tasks]",
	Short:         "tsp finds the optimal tour of a symmetric TSP instance",
	Long:          `tsp loads a distance-matrix file and searches for the optimal tour with a parallel branch-and-bound work-stealing runner.`,
	Args:          cobra.RangeArgs(1, 4),
	SilenceErrors: true,
	RunE:          solve,
}

func solve(cmd *cobra.Command, args []string) error {
	file := args[0]
	graphSize := 0
	threads := runtime.NumCPU()
	maxTasks := taskrunner.DefaultConfig().MaxInitialTasks

	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return errors.Errorf("bad graph_size %q", args[1])
		}
		graphSize = v
	}
	if len(args) > 2 {
		v, err := strconv.Atoi(args[2])
		if err != nil || v < 1 {
			return errors.Errorf("bad nb_threads %q", args[2])
		}
		threads = v
	}
	if len(args) > 3 {
		v, err := strconv.Atoi(args[3])
		if err != nil || v < 1 {
			return errors.Errorf("bad max_splitted_tasks %q", args[3])
		}
		maxTasks = v
	}

	graph, err := tsp.Load(file, graphSize)
	if err != nil {
		return err
	}

	best := tsp.NewBestCell()
	root := tsp.NewSearchTask(graph, best)
	runner := taskrunner.NewWorkStealingRunner(taskrunner.Config{
		NumWorkers:      threads,
		MaxInitialTasks: maxTasks,
	})
	if err := runner.Run(root); err != nil {
		return err
	}

	path, ok := root.Result()
	if !ok {
		return errors.Errorf("no tour found for %s", file)
	}

	seconds := strconv.FormatFloat(runner.Duration().Seconds(), 'f', 6, 64)
	fmt.Printf("%s;%d;%d;%d;%s;%s\n", file, graph.Size(), threads, maxTasks, seconds, path.String())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("tsp failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
