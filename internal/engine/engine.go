package engine

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"cohort/internal/category"
	"cohort/internal/cluster"
	"cohort/internal/config"
	"cohort/internal/logging"
	"cohort/internal/preprocess"
	"cohort/internal/profile"
	"cohort/internal/types"
)

// Engine orchestrates the full grouping pipeline: preprocessing,
// clustering, profiling, temporal merging, and job-title categorization.
// All entry points take the mutex; the engine is safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	cfg      *config.Config
	session  *preprocess.Session
	selector *cluster.Selector
	profiler *profile.Profiler

	// previous is the assignment from the last completed run, consumed
	// by the temporal merge.
	previous types.ClusterAssignment

	classifier *category.Model

	now   func() time.Time
	newID func() string
}

// New builds an engine from the given configuration.
func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg: cfg,
		session: preprocess.NewSession(preprocess.Options{
			ReduceDimensions: cfg.Preprocessing.ReduceDimensions,
			VarianceRetained: cfg.Preprocessing.VarianceRetained,
		}),
		selector: &cluster.Selector{
			SizeThreshold: cfg.Clustering.AutoSizeThreshold,
			ClusterCount:  cfg.Clustering.ClusterCountOverride,
			Eps:           cfg.Clustering.DensityRadiusOverride,
		},
		profiler: &profile.Profiler{
			TopDominant:        cfg.Profiling.TopDominantFeatures,
			IncludeCorrelation: cfg.Profiling.IncludeCorrelation,
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// IdentifyGroups runs the pipeline on a fresh batch. The resulting
// assignment becomes the baseline for later UpdateGroups calls.
func (e *Engine) IdentifyGroups(records []types.EmployeeRecord) (*types.RunResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryEngine, "IdentifyGroups")
	defer timer.Stop()

	result, err := e.analyze(records)
	if err != nil {
		return nil, err
	}
	e.previous = result.Assignment
	return result, nil
}

// UpdateGroups runs the pipeline on a new batch of the same population
// and blends the assignment with the previous run. Without a previous
// run it behaves like IdentifyGroups.
func (e *Engine) UpdateGroups(records []types.EmployeeRecord) (*types.RunResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryEngine, "UpdateGroups")
	defer timer.Stop()

	result, err := e.analyze(records)
	if err != nil {
		return nil, err
	}

	if e.previous == nil {
		logging.Engine("No previous run, update falls back to a fresh identify")
		e.previous = result.Assignment
		return result, nil
	}

	merged, err := mergeAssignments(e.previous, result.Assignment,
		e.cfg.Merge.WeightPrevious, e.cfg.Merge.WeightCurrent)
	if err != nil {
		return nil, err
	}
	logging.Engine("Merged run %s with previous assignment (%d records)", result.RunID, len(merged))

	result.Assignment = merged
	e.previous = merged
	return result, nil
}

// analyze runs preprocess, cluster, and profile. Caller holds the mutex.
func (e *Engine) analyze(records []types.EmployeeRecord) (*types.RunResult, error) {
	table := types.FromRecords(records)
	logging.EngineDebug("Analyzing %d records, %d columns", table.Rows(), len(table.Columns))

	features, err := e.session.Prepare(table)
	if err != nil {
		return nil, err
	}

	hint := types.ClusteringMethod(e.cfg.Clustering.Method)
	assignment, method, err := e.selector.Fit(features.Data, hint)
	if err != nil {
		return nil, err
	}

	result := &types.RunResult{
		RunID:      e.newID(),
		Method:     method,
		Timestamp:  e.now().UTC(),
		Assignment: assignment,
	}
	result.Profiles, err = e.profiler.Profile(features, assignment)
	if err != nil {
		return nil, err
	}
	logging.Engine("Run %s: method=%s groups=%d noise=%d",
		result.RunID, method, len(assignment.Groups()), assignment.NoiseCount())
	return result, nil
}

// Merge blends an explicit pair of assignments with the configured
// weights. The merged result replaces the stored baseline.
func (e *Engine) Merge(previous, current types.ClusterAssignment) (types.ClusterAssignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged, err := mergeAssignments(previous, current,
		e.cfg.Merge.WeightPrevious, e.cfg.Merge.WeightCurrent)
	if err != nil {
		return nil, err
	}
	e.previous = merged
	return merged, nil
}

// Previous returns the stored baseline assignment, nil before any run.
func (e *Engine) Previous() types.ClusterAssignment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previous
}

// Refit drops all fitted preprocessing state so the next batch fits
// fresh encoders and scaling.
func (e *Engine) Refit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Refit()
}

func mergeAssignments(previous, current types.ClusterAssignment, wPrev, wCurr float64) (types.ClusterAssignment, error) {
	if len(previous) != len(current) {
		return nil, &types.AlignmentError{PrevLen: len(previous), CurrLen: len(current)}
	}
	merged := make(types.ClusterAssignment, len(current))
	for i := range current {
		// Round half away from zero, so 0.5*0 + 0.5*1 lands on 1.
		merged[i] = int(math.Round(wPrev*float64(previous[i]) + wCurr*float64(current[i])))
	}
	return merged, nil
}
