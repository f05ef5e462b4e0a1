// Package preprocess turns raw record tables into scaled feature matrices.
// A Session owns the fitted transform state (encoders, scaler, projection):
// parameters are fit on the first Prepare call and reused for every later
// call until an explicit Refit.
package preprocess

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LabelEncoder maps categorical string values to dense integer codes.
// The first fit assigns codes over the sorted distinct values; values first
// seen on later batches are appended in encounter order so that existing
// codes never shift within a session.
type LabelEncoder struct {
	Classes []string `json:"classes"`
	codes   map[string]int
}

// NewLabelEncoder returns an unfitted encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{codes: make(map[string]int)}
}

// Fit learns the code mapping from the distinct values in vals.
func (e *LabelEncoder) Fit(vals []string) {
	seen := make(map[string]bool)
	e.Classes = e.Classes[:0]
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			e.Classes = append(e.Classes, v)
		}
	}
	sort.Strings(e.Classes)
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.codes[c] = i
	}
}

// Transform encodes vals, appending codes for values unseen at fit time.
func (e *LabelEncoder) Transform(vals []string) []float64 {
	if e.codes == nil {
		e.rebuildCodes()
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		code, ok := e.codes[v]
		if !ok {
			code = len(e.Classes)
			e.Classes = append(e.Classes, v)
			e.codes[v] = code
		}
		out[i] = float64(code)
	}
	return out
}

// rebuildCodes restores the lookup map after JSON restore.
func (e *LabelEncoder) rebuildCodes() {
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.codes[c] = i
	}
}

// StandardScaler standardizes columns to zero mean and unit variance using
// population statistics. Zero-variance columns pass through unscaled.
type StandardScaler struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(x *mat.Dense) {
	rows, cols := x.Dims()
	s.Means = make([]float64, cols)
	s.Scales = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		mean := stat.Mean(col, nil)
		variance := 0.0
		for _, v := range col {
			d := v - mean
			variance += d * d
		}
		variance /= float64(rows)
		scale := math.Sqrt(variance)
		if scale == 0 {
			scale = 1
		}
		s.Means[j] = mean
		s.Scales[j] = scale
	}
}

// Transform applies the fitted standardization in place on a copy.
func (s *StandardScaler) Transform(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-s.Means[j])/s.Scales[j])
		}
	}
	return out
}

// Fitted reports whether Fit has run.
func (s *StandardScaler) Fitted() bool { return len(s.Means) > 0 }

// PCA projects data onto the principal components that together explain at
// least the configured variance fraction. The component count is data
// dependent and recomputed on every fit.
type PCA struct {
	// Components is column-major: Components[j] is the j-th principal axis.
	Components [][]float64 `json:"components"`
	Means      []float64   `json:"means"`
}

// Fit computes the principal axes of x retaining varianceFraction.
func (p *PCA) Fit(x *mat.Dense, varianceFraction float64) error {
	_, cols := x.Dims()

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return errDegenerateProjection
	}
	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}

	keep := len(vars)
	if total > 0 {
		cum := 0.0
		for i, v := range vars {
			cum += v / total
			if cum >= varianceFraction {
				keep = i + 1
				break
			}
		}
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	p.Means = make([]float64, cols)
	for j := 0; j < cols; j++ {
		p.Means[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}

	p.Components = make([][]float64, keep)
	for k := 0; k < keep; k++ {
		axis := make([]float64, cols)
		for j := 0; j < cols; j++ {
			axis[j] = vecs.At(j, k)
		}
		p.Components[k] = axis
	}
	return nil
}

// Transform projects x onto the fitted axes.
func (p *PCA) Transform(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	keep := len(p.Components)
	out := mat.NewDense(rows, keep, nil)
	for i := 0; i < rows; i++ {
		for k := 0; k < keep; k++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				sum += (x.At(i, j) - p.Means[j]) * p.Components[k][j]
			}
			out.Set(i, k, sum)
		}
	}
	return out
}

// Fitted reports whether Fit has run.
func (p *PCA) Fitted() bool { return len(p.Components) > 0 }
