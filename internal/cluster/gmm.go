package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"cohort/internal/types"
)

// GMM is the mixture strategy: expectation-maximization over diagonal
// Gaussian components with hard assignment by maximum responsibility.
// No auto-tuning happens here; the selector supplies the component count.
type GMM struct {
	Components int
	MaxIter    int
	Tol        float64
	Seed       int64
}

// Fit runs EM and assigns each row to its most responsible component.
func (g *GMM) Fit(data *mat.Dense) (types.ClusterAssignment, error) {
	n, dims := data.Dims()
	if n < 2 {
		return nil, &types.ClusteringError{Reason: "fewer than 2 usable records"}
	}
	if g.Components < 1 || g.Components > n {
		return nil, &types.ClusteringError{Reason: "component count out of range"}
	}
	k := g.Components
	maxIter := g.MaxIter
	if maxIter == 0 {
		maxIter = 100
	}
	tol := g.Tol
	if tol == 0 {
		tol = 1e-4
	}

	// Initialize means with k-means++ seeding and covariances with the
	// per-column variance of the whole batch.
	rng := rand.New(rand.NewSource(g.Seed))
	km := &KMeans{K: k, Seed: g.Seed}
	means := km.seedCentroids(data, rng)

	variances := make([][]float64, k)
	colVar := make([]float64, dims)
	for j := 0; j < dims; j++ {
		col := mat.Col(nil, j, data)
		mean := floats.Sum(col) / float64(n)
		v := 0.0
		for _, x := range col {
			d := x - mean
			v += d * d
		}
		colVar[j] = math.Max(v/float64(n), 1e-6)
	}
	for c := 0; c < k; c++ {
		variances[c] = append([]float64(nil), colVar...)
	}
	weights := make([]float64, k)
	for c := range weights {
		weights[c] = 1 / float64(k)
	}

	resp := mat.NewDense(n, k, nil)
	prevLL := math.Inf(-1)

	for iter := 0; iter < maxIter; iter++ {
		// E-step: responsibilities via log-sum-exp.
		ll := 0.0
		for i := 0; i < n; i++ {
			row := data.RawRowView(i)
			logs := make([]float64, k)
			for c := 0; c < k; c++ {
				logs[c] = math.Log(weights[c]) + logGaussian(row, means[c], variances[c])
			}
			lse := logSumExp(logs)
			ll += lse
			for c := 0; c < k; c++ {
				resp.Set(i, c, math.Exp(logs[c]-lse))
			}
		}

		// M-step.
		for c := 0; c < k; c++ {
			rc := 0.0
			for i := 0; i < n; i++ {
				rc += resp.At(i, c)
			}
			if rc < 1e-10 {
				rc = 1e-10
			}
			weights[c] = rc / float64(n)
			for j := 0; j < dims; j++ {
				m := 0.0
				for i := 0; i < n; i++ {
					m += resp.At(i, c) * data.At(i, j)
				}
				m /= rc
				v := 0.0
				for i := 0; i < n; i++ {
					d := data.At(i, j) - m
					v += resp.At(i, c) * d * d
				}
				means[c][j] = m
				variances[c][j] = math.Max(v/rc, 1e-6)
			}
		}

		if math.Abs(ll-prevLL) < tol {
			break
		}
		prevLL = ll
	}

	labels := make(types.ClusterAssignment, n)
	for i := 0; i < n; i++ {
		best, bestResp := 0, -1.0
		for c := 0; c < k; c++ {
			if r := resp.At(i, c); r > bestResp {
				best, bestResp = c, r
			}
		}
		labels[i] = best
	}
	return labels, nil
}

func logGaussian(x, mean, variance []float64) float64 {
	sum := 0.0
	for j := range x {
		d := x[j] - mean[j]
		sum += -0.5*(d*d/variance[j]) - 0.5*math.Log(2*math.Pi*variance[j])
	}
	return sum
}

func logSumExp(logs []float64) float64 {
	max := floats.Max(logs)
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, l := range logs {
		sum += math.Exp(l - max)
	}
	return max + math.Log(sum)
}
