// Package tsp implements the symmetric Travelling Salesman Problem as a
// branch-and-bound task: split fans out one child per unvisited city, solve
// enumerates the remaining permutations nearest-first, and workers prune
// against a shared best-tour cell.
package tsp

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxGraph is the largest supported node count; the path representation is
// sized for it at compile time.
const MaxGraph = 32

// Graph is a complete graph over at most MaxGraph nodes with a symmetric
// distance matrix. Immutable once built.
type Graph struct {
	size int
	dist [][]int
}

// NewGraph builds a graph from a square distance matrix.
func NewGraph(matrix [][]int) (*Graph, error) {
	n := len(matrix)
	if n == 0 {
		return nil, errors.New("tsp: empty distance matrix")
	}
	if n > MaxGraph {
		return nil, errors.Errorf("tsp: graph has %d nodes, max is %d", n, MaxGraph)
	}
	dist := make([][]int, n)
	for i, row := range matrix {
		if len(row) != n {
			return nil, errors.Errorf("tsp: row %d has %d entries, want %d", i, len(row), n)
		}
		for j, d := range row {
			if d < 0 {
				return nil, errors.Errorf("tsp: negative distance %d at (%d,%d)", d, i, j)
			}
		}
		dist[i] = append([]int(nil), row...)
	}
	return &Graph{size: n, dist: dist}, nil
}

// Load reads a graph from a text file: optional '#' comment lines, then the
// node count, then a row-major NxN distance matrix, all whitespace
// separated. A limit > 0 truncates the graph to its leading limit x limit
// submatrix.
func Load(path string, limit int) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "tsp: open %s", path)
	}
	defer f.Close()

	var fields []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields = append(fields, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "tsp: read %s", path)
	}
	if len(fields) == 0 {
		return nil, errors.Errorf("tsp: %s holds no graph data", path)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return nil, errors.Errorf("tsp: %s: bad node count %q", path, fields[0])
	}
	if len(fields) < 1+n*n {
		return nil, errors.Errorf("tsp: %s: matrix needs %d entries, found %d", path, n*n, len(fields)-1)
	}

	use := n
	if limit > 0 && limit < n {
		use = limit
	}
	matrix := make([][]int, use)
	for i := 0; i < use; i++ {
		matrix[i] = make([]int, use)
		for j := 0; j < use; j++ {
			v, err := strconv.Atoi(fields[1+i*n+j])
			if err != nil {
				return nil, errors.Errorf("tsp: %s: bad distance %q at (%d,%d)", path, fields[1+i*n+j], i, j)
			}
			matrix[i][j] = v
		}
	}
	return NewGraph(matrix)
}

// Size returns the node count.
func (g *Graph) Size() int {
	return g.size
}

// Distance returns the edge weight between nodes i and j.
func (g *Graph) Distance(i, j int) int {
	return g.dist[i][j]
}
