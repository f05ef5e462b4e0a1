// Package cluster implements the clustering strategies and the selection
// heuristics built around them: automatic method choice by dataset size,
// elbow detection for the partitional cluster count, and neighborhood
// parameter estimation for the density method.
package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"cohort/internal/types"
)

// defaultSeed keeps fits reproducible across runs, mirroring the fixed
// random state the reference behavior was specified against.
const defaultSeed = 42

// Strategy fits a feature matrix and returns one label per row.
type Strategy interface {
	Fit(data *mat.Dense) (types.ClusterAssignment, error)
}

// KMeans is the partitional strategy: Lloyd iterations seeded with
// k-means++ initialization. Deterministic for a fixed Seed.
type KMeans struct {
	K       int
	MaxIter int
	Seed    int64

	inertia float64
}

// Inertia returns the within-cluster sum of squared distances of the last
// Fit. Zero before the first Fit.
func (km *KMeans) Inertia() float64 { return km.inertia }

// Fit assigns each row to one of K clusters.
func (km *KMeans) Fit(data *mat.Dense) (types.ClusterAssignment, error) {
	n, dims := data.Dims()
	if n < 2 {
		return nil, &types.ClusteringError{Reason: "fewer than 2 usable records"}
	}
	if km.K < 1 || km.K > n {
		return nil, &types.ClusteringError{Reason: "cluster count out of range"}
	}
	maxIter := km.MaxIter
	if maxIter == 0 {
		maxIter = 100
	}

	rng := rand.New(rand.NewSource(km.Seed))
	centroids := km.seedCentroids(data, rng)

	labels := make(types.ClusterAssignment, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < km.K; c++ {
				d := sqDist(data.RawRowView(i), centroids[c])
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids; an emptied cluster takes the point
		// farthest from its centroid to keep K stable.
		counts := make([]int, km.K)
		next := make([][]float64, km.K)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i := 0; i < n; i++ {
			counts[labels[i]]++
			row := data.RawRowView(i)
			for j, v := range row {
				next[labels[i]][j] += v
			}
		}
		for c := 0; c < km.K; c++ {
			if counts[c] == 0 {
				far := km.farthestPoint(data, centroids, labels)
				copy(next[c], data.RawRowView(far))
				labels[far] = c
				counts[c] = 1
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centroids = next
	}

	km.inertia = 0
	for i := 0; i < n; i++ {
		km.inertia += sqDist(data.RawRowView(i), centroids[labels[i]])
	}
	return labels, nil
}

// seedCentroids runs k-means++ initialization.
func (km *KMeans) seedCentroids(data *mat.Dense, rng *rand.Rand) [][]float64 {
	n, dims := data.Dims()
	centroids := make([][]float64, 0, km.K)

	first := rng.Intn(n)
	c0 := make([]float64, dims)
	copy(c0, data.RawRowView(first))
	centroids = append(centroids, c0)

	dists := make([]float64, n)
	for len(centroids) < km.K {
		total := 0.0
		for i := 0; i < n; i++ {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(data.RawRowView(i), c); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}
		pick := 0
		if total > 0 {
			r := rng.Float64() * total
			acc := 0.0
			for i, d := range dists {
				acc += d
				if acc >= r {
					pick = i
					break
				}
			}
		} else {
			pick = rng.Intn(n)
		}
		c := make([]float64, dims)
		copy(c, data.RawRowView(pick))
		centroids = append(centroids, c)
	}
	return centroids
}

func (km *KMeans) farthestPoint(data *mat.Dense, centroids [][]float64, labels types.ClusterAssignment) int {
	n, _ := data.Dims()
	far, farDist := 0, -1.0
	for i := 0; i < n; i++ {
		d := sqDist(data.RawRowView(i), centroids[labels[i]])
		if d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
