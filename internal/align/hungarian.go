package align

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidCost is returned when a cost matrix holds NaN or infinite entries.
var ErrInvalidCost = errors.New("invalid cost matrix entry")

// HungarianAssign solves the rectangular assignment problem for an n×m cost
// matrix using Kuhn–Munkres with row/column potentials (the Jonker–Volgenant
// formulation), O(max(n,m)³).
//
// It returns assignment[i] = column assigned to row i, or -1 when row i is
// left over because n > m. Exactly min(n,m) rows are assigned and no column
// is used twice.
//
// Ties: rows are inserted in ascending order, and when several columns share
// the smallest reduced cost the lowest column index is taken. A given matrix
// therefore always yields the same assignment.
func HungarianAssign(cost mat.Matrix) ([]int, error) {
	if cost == nil {
		return nil, nil
	}
	if d, ok := cost.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return nil, nil
	}
	n, m := cost.Dims()
	if n == 0 {
		return nil, nil
	}
	if m == 0 {
		result := make([]int, n)
		for i := range result {
			result[i] = -1
		}
		return result, nil
	}

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if v := cost.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: cost[%d][%d] = %v", ErrInvalidCost, i, j, v)
			}
		}
	}

	// Pad to square with zeros. Every padded row (or column) must take exactly
	// one partner, so a constant pad never changes which real pairs are optimal.
	dim := max(n, m)
	c := func(i, j int) float64 {
		if i < n && j < m {
			return cost.At(i, j)
		}
		return 0
	}

	const inf = math.MaxFloat64 / 2

	// 1-indexed; column 0 is the virtual start of each augmenting path.
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)   // p[j] = row matched to column j
	way := make([]int, dim+1) // way[j] = previous column on the path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	for j := 1; j <= m; j++ {
		if r := p[j]; r > 0 && r <= n {
			result[r-1] = j - 1
		}
	}
	return result, nil
}
