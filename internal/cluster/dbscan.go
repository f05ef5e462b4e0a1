package cluster

import (
	"gonum.org/v1/gonum/mat"

	"cohort/internal/types"
)

// DBSCAN is the density strategy. Points in no dense neighborhood receive
// types.NoiseLabel. Cluster labels are assigned in discovery order, which
// makes the output deterministic for a fixed row order.
type DBSCAN struct {
	Eps       float64
	MinPoints int
}

// Fit groups rows by neighborhood density.
func (db *DBSCAN) Fit(data *mat.Dense) (types.ClusterAssignment, error) {
	n, _ := data.Dims()
	if n < 2 {
		return nil, &types.ClusteringError{Reason: "fewer than 2 usable records"}
	}
	if db.Eps <= 0 || db.MinPoints < 1 {
		return nil, &types.ClusteringError{Reason: "density parameters not set"}
	}

	const unvisited = -2
	labels := make(types.ClusterAssignment, n)
	for i := range labels {
		labels[i] = unvisited
	}

	epsSq := db.Eps * db.Eps
	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		neighbors := db.regionQuery(data, i, epsSq)
		if len(neighbors) < db.MinPoints {
			labels[i] = types.NoiseLabel
			continue
		}

		labels[i] = next
		// Expand the cluster breadth-first over density-reachable points.
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			p := queue[qi]
			if labels[p] == types.NoiseLabel {
				labels[p] = next // border point
			}
			if labels[p] != unvisited {
				continue
			}
			labels[p] = next
			pn := db.regionQuery(data, p, epsSq)
			if len(pn) >= db.MinPoints {
				queue = append(queue, pn...)
			}
		}
		next++
	}

	return labels, nil
}

// regionQuery returns all rows within Eps of row i, including i itself.
func (db *DBSCAN) regionQuery(data *mat.Dense, i int, epsSq float64) []int {
	n, _ := data.Dims()
	var out []int
	ri := data.RawRowView(i)
	for j := 0; j < n; j++ {
		if sqDist(ri, data.RawRowView(j)) <= epsSq {
			out = append(out, j)
		}
	}
	return out
}
