package preprocess

import (
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// daysPerYear converts tenure from days to fractional years.
const daysPerYear = 365.0

var errDegenerateProjection = &types.PreprocessingError{Reason: "principal component decomposition failed"}

// Options configures a preprocessing session.
type Options struct {
	// ReduceDimensions enables the PCA step.
	ReduceDimensions bool

	// VarianceRetained is the variance fraction PCA must explain.
	VarianceRetained float64

	// Now supplies the clock for tenure derivation. Defaults to time.Now.
	Now func() time.Time
}

// Session holds fitted preprocessing state. Not safe for concurrent use;
// the engine serializes access per the single-caller contract.
type Session struct {
	opts     Options
	fitted   bool
	inputs   []string // raw feature names before projection
	columns  []string // output feature names
	encoders map[string]*LabelEncoder
	scaler   StandardScaler
	pca      PCA
}

// NewSession creates an unfitted preprocessing session.
func NewSession(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.VarianceRetained == 0 {
		opts.VarianceRetained = 0.95
	}
	return &Session{
		opts:     opts,
		encoders: make(map[string]*LabelEncoder),
	}
}

// Fitted reports whether the session has fitted transform parameters.
func (s *Session) Fitted() bool { return s.fitted }

// Refit clears fitted state so the next Prepare call refits everything.
func (s *Session) Refit() {
	s.fitted = false
	s.inputs = nil
	s.columns = nil
	s.encoders = make(map[string]*LabelEncoder)
	s.scaler = StandardScaler{}
	s.pca = PCA{}
}

// Columns returns the feature column names fixed at first fit.
func (s *Session) Columns() []string { return s.columns }

// Prepare converts a record table into a scaled feature matrix. The first
// call fits encoders, scaler, and the optional projection; later calls
// apply the fitted parameters without refitting.
func (s *Session) Prepare(t *types.Table) (*types.FeatureMatrix, error) {
	timer := logging.StartTimer(logging.CategoryPreprocess, "Prepare")
	defer timer.Stop()

	n := t.Rows()
	if n == 0 {
		return nil, &types.PreprocessingError{Reason: "no records supplied"}
	}

	var names []string
	var columns [][]float64
	var tenureNames []string
	var tenureColumns [][]float64

	for i := range t.Columns {
		col := &t.Columns[i]
		switch col.Kind {
		case types.KindNumeric:
			vals, err := imputeNumeric(col)
			if err != nil {
				return nil, err
			}
			names = append(names, col.Name)
			columns = append(columns, vals)

		case types.KindCategorical:
			vals, err := imputeCategorical(col)
			if err != nil {
				return nil, err
			}
			enc, ok := s.encoders[col.Name]
			if !ok {
				enc = NewLabelEncoder()
				enc.Fit(vals)
				s.encoders[col.Name] = enc
			}
			names = append(names, col.Name)
			columns = append(columns, enc.Transform(vals))

		case types.KindDate:
			vals, err := s.deriveTenure(col)
			if err != nil {
				return nil, err
			}
			tenureNames = append(tenureNames, tenureName(col.Name))
			tenureColumns = append(tenureColumns, vals)

		default:
			return nil, &types.PreprocessingError{Column: col.Name, Reason: "unsupported column type " + col.Kind.String()}
		}
	}

	// Derived tenure columns follow the declared columns.
	names = append(names, tenureNames...)
	columns = append(columns, tenureColumns...)

	// Validate against the raw input columns: with projection on, the
	// output names are component names and no longer match the input.
	if s.fitted && !sameColumns(names, s.inputs) {
		return nil, &types.PreprocessingError{Reason: "column set differs from the fitted session"}
	}

	data := mat.NewDense(n, len(columns), nil)
	for j, col := range columns {
		data.SetCol(j, col)
	}

	if !s.scaler.Fitted() {
		s.scaler.Fit(data)
	}
	scaled := s.scaler.Transform(data)

	outNames := names
	out := scaled
	if s.opts.ReduceDimensions {
		if !s.pca.Fitted() {
			if err := s.pca.Fit(scaled, s.opts.VarianceRetained); err != nil {
				return nil, err
			}
			logging.PreprocessDebug("PCA retained %d of %d components", len(s.pca.Components), len(names))
		}
		out = s.pca.Transform(scaled)
		outNames = make([]string, len(s.pca.Components))
		for k := range outNames {
			outNames[k] = componentName(k)
		}
	}

	if !s.fitted {
		s.inputs = names
		s.columns = outNames
		s.fitted = true
		logging.Preprocess("session fitted: %d records, %d features", n, len(outNames))
	}

	return &types.FeatureMatrix{Columns: outNames, Data: out}, nil
}

// deriveTenure converts a date column into fractional years before now.
// Missing dates take the median tenure of the batch.
func (s *Session) deriveTenure(col *types.Column) ([]float64, error) {
	now := s.opts.Now()
	vals := make([]float64, len(col.Dates))
	var present []float64
	for i, d := range col.Dates {
		if col.Missing != nil && col.Missing[i] {
			continue
		}
		vals[i] = now.Sub(d).Hours() / 24 / daysPerYear
		present = append(present, vals[i])
	}
	if len(present) == 0 {
		return nil, &types.PreprocessingError{Column: col.Name, Reason: "all values missing, median undefined"}
	}
	med := median(present)
	for i := range vals {
		if col.Missing != nil && col.Missing[i] {
			vals[i] = med
		}
	}
	return vals, nil
}

func imputeNumeric(col *types.Column) ([]float64, error) {
	vals := make([]float64, len(col.Numeric))
	copy(vals, col.Numeric)
	var present []float64
	for i, v := range vals {
		if col.Missing != nil && col.Missing[i] {
			continue
		}
		present = append(present, v)
	}
	if len(present) == 0 {
		return nil, &types.PreprocessingError{Column: col.Name, Reason: "all values missing, median undefined"}
	}
	med := median(present)
	for i := range vals {
		if col.Missing != nil && col.Missing[i] {
			vals[i] = med
		}
	}
	return vals, nil
}

func imputeCategorical(col *types.Column) ([]string, error) {
	vals := make([]string, len(col.Text))
	copy(vals, col.Text)
	counts := make(map[string]int)
	var order []string
	for i, v := range vals {
		if col.Missing != nil && col.Missing[i] {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	if len(order) == 0 {
		return nil, &types.PreprocessingError{Column: col.Name, Reason: "all values missing, mode undefined"}
	}
	// Mode with ties broken by first-seen order.
	mode := order[0]
	for _, v := range order {
		if counts[v] > counts[mode] {
			mode = v
		}
	}
	for i := range vals {
		if col.Missing != nil && col.Missing[i] {
			vals[i] = mode
		}
	}
	return vals, nil
}

// median matches the numpy convention: the mean of the two middle values
// for even-length input.
func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tenureName(dateCol string) string {
	if dateCol == "hire_date" {
		return "tenure"
	}
	return dateCol + "_tenure"
}

func componentName(k int) string {
	return "component_" + strconv.Itoa(k+1)
}
