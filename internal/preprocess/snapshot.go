package preprocess

import "time"

// SessionState is the serializable form of a fitted session, embedded in
// the engine's exported state blob.
type SessionState struct {
	Fitted           bool                     `json:"fitted"`
	Inputs           []string                 `json:"inputs"`
	Columns          []string                 `json:"columns"`
	Encoders         map[string]*LabelEncoder `json:"encoders"`
	Scaler           StandardScaler           `json:"scaler"`
	Projection       PCA                      `json:"projection"`
	ReduceDimensions bool                     `json:"reduce_dimensions"`
	VarianceRetained float64                  `json:"variance_retained"`
}

// State captures the session's fitted parameters.
func (s *Session) State() *SessionState {
	return &SessionState{
		Fitted:           s.fitted,
		Inputs:           s.inputs,
		Columns:          s.columns,
		Encoders:         s.encoders,
		Scaler:           s.scaler,
		Projection:       s.pca,
		ReduceDimensions: s.opts.ReduceDimensions,
		VarianceRetained: s.opts.VarianceRetained,
	}
}

// Restore rebuilds a session from captured state.
func Restore(state *SessionState, now func() time.Time) *Session {
	s := NewSession(Options{
		ReduceDimensions: state.ReduceDimensions,
		VarianceRetained: state.VarianceRetained,
		Now:              now,
	})
	s.fitted = state.Fitted
	s.inputs = state.Inputs
	s.columns = state.Columns
	if state.Encoders != nil {
		s.encoders = state.Encoders
		for _, enc := range s.encoders {
			enc.rebuildCodes()
		}
	}
	s.scaler = state.Scaler
	s.pca = state.Projection
	return s
}
