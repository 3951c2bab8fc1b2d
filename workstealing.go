package taskrunner

import (
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var log = log15.New("pkg", "taskrunner")

// Config holds configuration for the work-stealing runner.
type Config struct {
	NumWorkers      int // Number of worker goroutines
	MaxInitialTasks int // Leaf budget for the initial partitioning
	DequeCapacity   int // Fixed capacity of each per-worker deque
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		NumWorkers:      runtime.NumCPU(),
		MaxInitialTasks: 64,
		DequeCapacity:   4096,
	}
}

// WorkStealingRunner drains a task tree in parallel. A breadth-first
// partitioning pass splits the root until MaxInitialTasks is reached; the
// tasks still pending at that level are kept as leaves too, so the leaf
// count can exceed the budget by the number of tasks left unexpanded. The
// leaves are seeded round-robin into per-worker deques, and workers
// drain them with local LIFO pops, stealing from random victims when their
// own deque runs dry. Run returns once every leaf has been solved.
type WorkStealingRunner struct {
	timer
	config Config
	deques []*Deque[Task]

	tasksRemaining atomic.Int64
	stop           atomic.Bool

	metrics Metrics
}

// NewWorkStealingRunner creates a runner with the given configuration,
// clamping invalid values to their minimums.
func NewWorkStealingRunner(config Config) *WorkStealingRunner {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	if config.MaxInitialTasks <= 0 {
		config.MaxInitialTasks = 1
	}
	if config.DequeCapacity <= 0 {
		config.DequeCapacity = 4096
	}

	r := &WorkStealingRunner{config: config}
	r.deques = make([]*Deque[Task], config.NumWorkers)
	for i := range r.deques {
		r.deques[i] = NewDeque[Task](config.DequeCapacity)
	}
	return r
}

// Metrics returns a copy of the statistics of the most recent run.
func (r *WorkStealingRunner) Metrics() Metrics {
	return r.metrics.snapshot()
}

// Run partitions the root into leaves, distributes them across the worker
// deques and blocks until all of them have been solved. The root remains
// owned by the caller; intermediate tasks are garbage once Run returns.
func (r *WorkStealingRunner) Run(root Task) error {
	runID := uuid.NewString()
	r.metrics.reset(runID)

	leaves := r.partition(root)
	log.Debug("partitioned root task", "run", runID, "leaves", len(leaves), "budget", r.config.MaxInitialTasks)

	if len(leaves) == 0 {
		// Nothing to distribute: solve the root directly, still timed.
		r.startTimer()
		root.Solve()
		r.stopTimer()
		r.metrics.record(0, 1, 0, r.startedAt, r.stoppedAt)
		return nil
	}

	r.tasksRemaining.Store(int64(len(leaves)))
	r.stop.Store(false)

	for i, leaf := range leaves {
		idx := i % r.config.NumWorkers
		if !r.deques[idx].PushBottom(leaf) {
			return errors.Errorf("deque %d overflow while seeding %d leaves (capacity %d)",
				idx, len(leaves), r.deques[idx].Capacity())
		}
	}

	solved := make([]int, r.config.NumWorkers)
	steals := make([]int, r.config.NumWorkers)

	r.startTimer()
	var g errgroup.Group
	for i := 0; i < r.config.NumWorkers; i++ {
		id := i
		g.Go(func() error {
			return r.workerLoop(id, &solved[id], &steals[id])
		})
	}
	err := g.Wait()
	r.stopTimer()

	totalSolved, totalSteals := 0, 0
	for i := range solved {
		totalSolved += solved[i]
		totalSteals += steals[i]
	}
	r.metrics.record(len(leaves), totalSolved, totalSteals, r.startedAt, r.stoppedAt)

	if err != nil {
		return err
	}
	log.Debug("run complete", "run", runID, "solved", totalSolved, "steals", totalSteals, "duration", r.Duration())
	return nil
}

// partition expands the root breadth-first until the leaf budget is reached.
// Tasks whose split would push past the budget keep their children discarded
// and are demoted to leaves; the surviving set is independent and ready for
// parallel execution.
func (r *WorkStealingRunner) partition(root Task) []Task {
	var leaves []Task
	current := []Task{root}
	next := make([]Task, 0, r.config.MaxInitialTasks)
	budget := r.config.MaxInitialTasks
	children := NewCollection()

	for len(current) > 0 {
		for idx, task := range current {
			if len(leaves)+len(next) >= budget {
				// Budget reached: everything still pending becomes a leaf.
				leaves = append(leaves, current[idx:]...)
				leaves = append(leaves, next...)
				return leaves
			}

			children.Clear()
			n := task.Split(children)
			if n == 0 {
				leaves = append(leaves, task)
				continue
			}
			if len(leaves)+len(next)+n > budget {
				// Oversize split: discard the children, keep the parent whole.
				children.Clear()
				leaves = append(leaves, task)
				continue
			}
			for i := 0; i < n; i++ {
				next = append(next, children.At(i))
			}
		}

		if len(next) == 0 {
			return leaves
		}
		current, next = next, current[:0]
	}
	return leaves
}

// workerLoop drains the worker's own deque LIFO, stealing from random
// victims when it runs dry. The worker whose decrement takes tasksRemaining
// to zero raises the stop flag; everyone else observes it and exits.
func (r *WorkStealingRunner) workerLoop(id int, solved, steals *int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			// A failing Solve is a programming error; poison the run so the
			// other workers drain out instead of spinning on the counter.
			r.stop.Store(true)
			err = errors.Errorf("worker %d: task panicked: %v", id, p)
		}
	}()

	own := r.deques[id]
	numWorkers := r.config.NumWorkers
	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(id)<<32))

	for {
		if t, ok := own.PopBottom(); ok {
			t.Solve()
			*solved++
			if r.tasksRemaining.Add(-1) == 0 {
				r.stop.Store(true)
				return nil
			}
			continue
		}

		var task Task
		stolen := false
		for attempt := 0; attempt < 2*numWorkers; attempt++ {
			victim := rng.Intn(numWorkers)
			if victim == id {
				continue
			}
			if t, ok := r.deques[victim].Steal(); ok {
				task = t
				stolen = true
				break
			}
		}

		if stolen {
			task.Solve()
			*solved++
			*steals++
			if r.tasksRemaining.Add(-1) == 0 {
				r.stop.Store(true)
				return nil
			}
			continue
		}

		if r.stop.Load() {
			return nil
		}
		if r.tasksRemaining.Load() == 0 {
			r.stop.Store(true)
			return nil
		}

		runtime.Gosched()
	}
}
