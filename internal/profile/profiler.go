// Package profile computes per-cluster descriptive statistics and renders
// the deterministic text report. Profiles are recomputed in full on every
// run and never mutate their inputs.
package profile

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// Profiler configures group profiling.
type Profiler struct {
	// TopDominant is how many deviation-ranked features each profile
	// keeps. Defaults to 3.
	TopDominant int

	// IncludeCorrelation adds the per-group Pearson correlation matrix.
	IncludeCorrelation bool
}

// Profile computes one GroupProfile per non-noise label. The dominant
// feature score is |group mean - corpus mean| / corpus standard deviation,
// with ties broken by column declaration order.
func (p *Profiler) Profile(m *types.FeatureMatrix, assignment types.ClusterAssignment) (map[int]types.GroupProfile, error) {
	timer := logging.StartTimer(logging.CategoryProfile, "Profile")
	defer timer.Stop()

	rows := m.Rows()
	if len(assignment) != rows {
		return nil, fmt.Errorf("assignment has %d labels for %d records", len(assignment), rows)
	}
	if rows == 0 {
		return nil, fmt.Errorf("empty feature matrix")
	}

	topK := p.TopDominant
	if topK == 0 {
		topK = 3
	}
	cols := m.Cols()

	// Corpus-wide dispersion over all records, noise included.
	corpusMean := make([]float64, cols)
	corpusStd := make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := columnValues(m, j)
		corpusMean[j] = stat.Mean(col, nil)
		corpusStd[j] = sampleStd(col, corpusMean[j])
	}

	profiles := make(map[int]types.GroupProfile)
	for _, label := range assignment.Groups() {
		idx := memberIndices(assignment, label)
		size := len(idx)

		features := make([]types.FeatureStat, cols)
		scores := make([]float64, cols)
		for j := 0; j < cols; j++ {
			vals := make([]float64, size)
			for i, r := range idx {
				vals[i] = m.Data.At(r, j)
			}
			mean := stat.Mean(vals, nil)
			features[j] = types.FeatureStat{
				Name: m.Columns[j],
				Mean: mean,
				Std:  sampleStd(vals, mean),
			}
			if corpusStd[j] > 0 {
				scores[j] = math.Abs(mean-corpusMean[j]) / corpusStd[j]
			}
		}

		gp := types.GroupProfile{
			Label:    label,
			Size:     size,
			Percent:  float64(size) / float64(rows) * 100,
			Features: features,
			Dominant: rankDominant(m.Columns, scores, topK),
		}
		if p.IncludeCorrelation {
			gp.Correlation = correlationMatrix(m, idx)
		}
		profiles[label] = gp
	}

	logging.ProfileDebug("profiled %d groups over %d records", len(profiles), rows)
	return profiles, nil
}

// rankDominant returns the topK features by score, descending, ties broken
// by column declaration order.
func rankDominant(columns []string, scores []float64, topK int) []types.DominantFeature {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})
	if topK > len(order) {
		topK = len(order)
	}
	out := make([]types.DominantFeature, topK)
	for i := 0; i < topK; i++ {
		out[i] = types.DominantFeature{Name: columns[order[i]], Score: scores[order[i]]}
	}
	return out
}

// correlationMatrix computes the pairwise Pearson correlation of the
// group's rows. Zero-variance columns correlate as 0.
func correlationMatrix(m *types.FeatureMatrix, idx []int) [][]float64 {
	cols := m.Cols()
	vals := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		col := make([]float64, len(idx))
		for i, r := range idx {
			col[i] = m.Data.At(r, j)
		}
		vals[j] = col
	}
	out := make([][]float64, cols)
	for a := 0; a < cols; a++ {
		out[a] = make([]float64, cols)
		for b := 0; b < cols; b++ {
			if a == b {
				out[a][b] = 1
				continue
			}
			c := stat.Correlation(vals[a], vals[b], nil)
			if math.IsNaN(c) {
				c = 0
			}
			out[a][b] = c
		}
	}
	return out
}

func memberIndices(assignment types.ClusterAssignment, label int) []int {
	var idx []int
	for i, l := range assignment {
		if l == label {
			idx = append(idx, i)
		}
	}
	return idx
}

func columnValues(m *types.FeatureMatrix, j int) []float64 {
	rows := m.Rows()
	col := make([]float64, rows)
	for i := 0; i < rows; i++ {
		col[i] = m.Data.At(i, j)
	}
	return col
}

// sampleStd is the pandas-style standard deviation (ddof=1); zero for a
// single observation.
func sampleStd(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
