// Package intsort implements integer-vector sorting as a divide-and-conquer
// task: split partitions around a pivot, merge concatenates the sorted
// halves, solve sorts in place. It exercises the full split/merge path of
// the runners and doubles as a correctness baseline.
package intsort

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"

	"github.com/go-foundations/taskrunner"
)

// VecSortTask sorts a vector of ints ascending.
type VecSortTask struct {
	data []int
}

var _ taskrunner.Task = (*VecSortTask)(nil)

// New creates a task over the given values. The slice is owned by the task
// from here on.
func New(data []int) *VecSortTask {
	return &VecSortTask{data: data}
}

// NewRandom creates a task over n uniform values in [0, n*10), generated
// from seed so scenarios are reproducible.
func NewRandom(n int, seed int64) *VecSortTask {
	rng := rand.New(rand.NewSource(seed))
	data := make([]int, n)
	for i := range data {
		data[i] = rng.Intn(n * 10)
	}
	return &VecSortTask{data: data}
}

// Clone returns a deep copy, for running the same input through several
// runners.
func (t *VecSortTask) Clone() *VecSortTask {
	data := make([]int, len(t.data))
	copy(data, t.data)
	return &VecSortTask{data: data}
}

// Result returns the task's current values.
func (t *VecSortTask) Result() []int {
	return t.data
}

// Split partitions the vector around its first element into two children:
// values below the pivot and values at or above it. The pivot itself joins
// whichever side keeps concatenation order correct. Vectors shorter than
// three elements are leaves.
func (t *VecSortTask) Split(c *taskrunner.Collection) int {
	if len(t.data) < 3 {
		return 0
	}
	left := &VecSortTask{}
	right := &VecSortTask{}
	pivot := t.data[0]
	for _, v := range t.data[1:] {
		if v < pivot {
			left.data = append(left.data, v)
		} else {
			right.data = append(right.data, v)
		}
	}
	if len(right.data) > 0 {
		left.data = append(left.data, pivot)
	} else {
		right.data = append(right.data, pivot)
	}
	c.Push(left)
	c.Push(right)
	return 2
}

// Merge rebuilds the vector by concatenating the solved children in split
// order, then drains the collection.
func (t *VecSortTask) Merge(c *taskrunner.Collection) {
	t.data = t.data[:0]
	for i := 0; i < c.Size(); i++ {
		child := c.At(i).(*VecSortTask)
		t.data = append(t.data, child.data...)
	}
	c.Clear()
}

// Solve sorts the vector in place.
func (t *VecSortTask) Solve() {
	sort.Ints(t.data)
}

// Write renders the values space-separated.
func (t *VecSortTask) Write(w io.Writer) {
	for i, v := range t.data {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, v)
	}
}

// String implements fmt.Stringer via Write.
func (t *VecSortTask) String() string {
	var sb strings.Builder
	t.Write(&sb)
	return sb.String()
}
