package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"cohort/internal/category"
	"cohort/internal/logging"
	"cohort/internal/preprocess"
	"cohort/internal/types"
)

const stateVersion = 1

// engineState is the serialized form of everything a later process
// needs to continue this engine's session.
type engineState struct {
	Version    int                      `json:"version"`
	Session    *preprocess.SessionState `json:"session"`
	Previous   []int                    `json:"previous,omitempty"`
	LastElbowK int                      `json:"last_elbow_k,omitempty"`
	Classifier *category.Model          `json:"classifier,omitempty"`
}

// ExportState serializes the fitted session, the baseline assignment,
// and the trained classifier into one JSON blob.
func (e *Engine) ExportState() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := engineState{
		Version:    stateVersion,
		Session:    e.session.State(),
		Previous:   e.previous,
		LastElbowK: e.selector.LastElbowK(),
		Classifier: e.classifier,
	}
	blob, err := json.Marshal(&state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode engine state: %w", err)
	}
	logging.EngineDebug("Exported engine state (%d bytes)", len(blob))
	return blob, nil
}

// ImportState restores a previously exported blob. The import is
// all-or-nothing: on any decode or version error the engine keeps its
// current state and returns a StateLoadError.
func (e *Engine) ImportState(blob []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var state engineState
	if err := json.Unmarshal(blob, &state); err != nil {
		return &types.StateLoadError{Err: err}
	}
	if state.Version != stateVersion {
		return &types.StateLoadError{Err: fmt.Errorf("unsupported state version %d", state.Version)}
	}
	if state.Session == nil {
		return &types.StateLoadError{Err: fmt.Errorf("state blob has no session")}
	}

	e.session = preprocess.Restore(state.Session, time.Now)
	e.previous = state.Previous
	e.selector.SetLastElbowK(state.LastElbowK)
	e.classifier = state.Classifier
	logging.Engine("Imported engine state (previous run: %d records)", len(e.previous))
	return nil
}
