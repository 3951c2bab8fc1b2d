package tsp

import (
	"io"

	"github.com/go-foundations/taskrunner"
)

// NewBestCell creates the shared best-tour cell for one run.
func NewBestCell() *taskrunner.Best[Path] {
	return taskrunner.NewBest[Path](func(p *Path) int { return p.distance })
}

// SearchTask explores tours extending a partial path. Split fans out one
// child per unvisited node until the cutoff depth; below it the task is a
// leaf and Solve enumerates the remaining permutations depth-first, pruning
// against the shared best cell.
type SearchTask struct {
	path   Path
	cutoff int
	best   *taskrunner.Best[Path]
}

var _ taskrunner.Task = (*SearchTask)(nil)

// NewSearchTask creates the root task for a full search over g, publishing
// improvements to best.
func NewSearchTask(g *Graph, best *taskrunner.Best[Path]) *SearchTask {
	return &SearchTask{
		path:   NewPath(g),
		cutoff: g.Size(),
		best:   best,
	}
}

func (t *SearchTask) child(node int) *SearchTask {
	c := &SearchTask{path: t.path, cutoff: t.cutoff, best: t.best}
	c.path.Push(node)
	return c
}

// Result returns the best tour found, if any.
func (t *SearchTask) Result() (Path, bool) {
	p := t.best.Load()
	if p == nil {
		return Path{}, false
	}
	return *p, true
}

// Split emits one child per unvisited node while the path is shorter than
// the cutoff; deeper tasks are leaves.
func (t *SearchTask) Split(c *taskrunner.Collection) int {
	if t.path.Len() >= t.cutoff {
		return 0
	}
	count := 0
	for i := 0; i < t.path.graph.Size(); i++ {
		if !t.path.Contains(i) {
			c.Push(t.child(i))
			count++
		}
	}
	return count
}

// Merge drains the children. Their results already flowed through the
// shared best cell, so there is nothing to integrate.
func (t *SearchTask) Merge(c *taskrunner.Collection) {
	for c.Pop() != nil {
	}
}

// Solve explores every completion of the partial path. Full tours are
// closed back to the origin and offered to the shared cell; interior nodes
// expand their unvisited candidates nearest-first to tighten the bound as
// early as possible.
func (t *SearchTask) Solve() {
	full := t.path.graph.Size()

	if t.path.Len() == full {
		t.path.Push(FirstNode)
		if t.path.Distance() < t.best.CurrentCost() {
			snapshot := t.path
			t.best.Offer(&snapshot)
		}
		t.path.Pop()
		return
	}

	var candidates [MaxGraph]int
	var extra [MaxGraph]int
	m := 0
	base := t.path.Distance()
	for i := 0; i < full; i++ {
		if !t.path.Contains(i) {
			t.path.Push(i)
			extra[m] = t.path.Distance() - base
			t.path.Pop()
			candidates[m] = i
			m++
		}
	}

	// Insertion sort, closest candidate first.
	for a := 1; a < m; a++ {
		keyNode, keyExtra := candidates[a], extra[a]
		b := a - 1
		for b >= 0 && extra[b] > keyExtra {
			candidates[b+1] = candidates[b]
			extra[b+1] = extra[b]
			b--
		}
		candidates[b+1] = keyNode
		extra[b+1] = keyExtra
	}

	bound := t.best.CurrentCost()
	for k := 0; k < m; k++ {
		t.path.Push(candidates[k])
		if t.path.Distance() < bound {
			t.Solve()
			bound = t.best.CurrentCost()
		}
		t.path.Pop()
	}
}

// Write renders the task's own partial path.
func (t *SearchTask) Write(w io.Writer) {
	t.path.Write(w)
}
