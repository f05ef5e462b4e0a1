package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// OptimalClusterCount chooses k via elbow detection: fit k-means for each
// candidate k in [2, min(10, n/5)], take first differences of the inertia
// curve, and pick the k whose arrival causes the sharpest drop.
func OptimalClusterCount(data *mat.Dense, seed int64) (int, error) {
	n, _ := data.Dims()
	maxK := n / 5
	if maxK > 10 {
		maxK = 10
	}
	if maxK < 2 {
		return 0, &types.ClusteringError{Reason: "too few records for elbow search"}
	}

	ks := make([]int, 0, maxK-1)
	inertias := make([]float64, 0, maxK-1)
	for k := 2; k <= maxK; k++ {
		km := &KMeans{K: k, Seed: seed}
		if _, err := km.Fit(data); err != nil {
			return 0, err
		}
		ks = append(ks, k)
		inertias = append(inertias, km.Inertia())
	}
	logging.ClusterDebug("elbow search: k=%v inertia=%v", ks, inertias)

	return elbowPoint(ks, inertias)
}

// elbowPoint returns the candidate k with the largest single inertia drop.
// The drop between inertias[i] and inertias[i+1] belongs to ks[i+1]: that
// is the k whose extra cluster bought the improvement.
func elbowPoint(ks []int, inertias []float64) (int, error) {
	if len(ks) == 0 {
		return 0, &types.ClusteringError{Reason: "empty elbow candidate range"}
	}
	if len(ks) == 1 {
		return ks[0], nil
	}

	degenerate := true
	for _, in := range inertias[1:] {
		if in != inertias[0] {
			degenerate = false
			break
		}
	}
	if degenerate {
		return 0, &types.ClusteringError{Reason: "degenerate elbow: identical inertia for all candidate k"}
	}

	best, bestDiff := 0, math.Inf(1)
	for i := 0; i+1 < len(inertias); i++ {
		diff := inertias[i+1] - inertias[i]
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return ks[best+1], nil
}

// EstimateDensityParams derives DBSCAN parameters from the data: eps is
// the 90th percentile of each point's distance to its nearest other point,
// and the minimum neighbor count is max(3, 1% of the record count).
func EstimateDensityParams(data *mat.Dense) (eps float64, minPoints int) {
	n, _ := data.Dims()
	nearest := make([]float64, n)
	for i := 0; i < n; i++ {
		best := math.Inf(1)
		ri := data.RawRowView(i)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if d := sqDist(ri, data.RawRowView(j)); d < best {
				best = d
			}
		}
		nearest[i] = math.Sqrt(best)
	}

	eps = percentile(nearest, 90)
	minPoints = n / 100
	if minPoints < 3 {
		minPoints = 3
	}
	return eps, minPoints
}

// percentile uses linear interpolation between order statistics, matching
// the numpy default.
func percentile(vals []float64, p float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
