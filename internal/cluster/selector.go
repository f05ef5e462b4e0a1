package cluster

import (
	"gonum.org/v1/gonum/mat"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// Selector resolves a method hint into a fitted strategy. With MethodAuto
// it picks partitional for batches above SizeThreshold (cheap and
// deterministic at scale) and density below it (better at non-convex
// shapes in small, irregular batches).
type Selector struct {
	// SizeThreshold is the auto-selection cutoff. Defaults to 1000.
	SizeThreshold int

	// ClusterCount skips elbow detection when > 0.
	ClusterCount int

	// Eps and MinPoints skip density estimation when set.
	Eps       float64
	MinPoints int

	// Components is the mixture component count. When 0, the selector
	// reuses the last elbow result from this session.
	Components int

	// Seed feeds every randomized strategy. Zero means the fixed default.
	Seed int64

	// lastElbowK caches the most recent elbow result for mixture reuse.
	lastElbowK int
}

// LastElbowK returns the cached elbow result, 0 if no elbow search ran.
func (s *Selector) LastElbowK() int { return s.lastElbowK }

// SetLastElbowK restores a cached elbow result (state import).
func (s *Selector) SetLastElbowK(k int) { s.lastElbowK = k }

// Fit resolves the hint, tunes missing hyperparameters, and fits.
// It returns the assignment and the method actually used.
func (s *Selector) Fit(data *mat.Dense, hint types.ClusteringMethod) (types.ClusterAssignment, types.ClusteringMethod, error) {
	n, _ := data.Dims()
	if n < 2 {
		return nil, "", &types.ClusteringError{Reason: "fewer than 2 usable records"}
	}

	seed := s.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	threshold := s.SizeThreshold
	if threshold == 0 {
		threshold = 1000
	}

	method := hint
	if method == "" || method == types.MethodAuto {
		if n > threshold {
			method = types.MethodPartitional
		} else {
			method = types.MethodDensity
		}
		logging.Cluster("auto-selected %s for %d records", method, n)
	}

	switch method {
	case types.MethodPartitional:
		k := s.ClusterCount
		if k == 0 {
			var err error
			k, err = OptimalClusterCount(data, seed)
			if err != nil {
				return nil, "", err
			}
			s.lastElbowK = k
			logging.Cluster("elbow selected k=%d", k)
		}
		km := &KMeans{K: k, Seed: seed}
		labels, err := km.Fit(data)
		return labels, method, err

	case types.MethodDensity:
		eps, minPts := s.Eps, s.MinPoints
		if eps <= 0 || minPts < 1 {
			estEps, estMin := EstimateDensityParams(data)
			if eps <= 0 {
				eps = estEps
			}
			if minPts < 1 {
				minPts = estMin
			}
			logging.Cluster("estimated eps=%.4f minPoints=%d", eps, minPts)
		}
		db := &DBSCAN{Eps: eps, MinPoints: minPts}
		labels, err := db.Fit(data)
		return labels, method, err

	case types.MethodMixture:
		components := s.Components
		if components == 0 {
			components = s.lastElbowK
		}
		if components == 0 {
			return nil, "", &types.ClusteringError{Reason: "mixture method needs a component count (none supplied and no elbow result available)"}
		}
		gmm := &GMM{Components: components, Seed: seed}
		labels, err := gmm.Fit(data)
		return labels, method, err

	default:
		return nil, "", &types.ClusteringError{Reason: "unknown clustering method " + string(method)}
	}
}
