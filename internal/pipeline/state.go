package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/ivlev/doctimeline/internal/jsonfile"
)

const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// StepResult records the outcome of one pipeline step.
type StepResult struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	DurationMS int64    `json:"duration_ms"`
	Detail     string   `json:"detail,omitempty"`
	Error      string   `json:"error,omitempty"`
	Outputs    []string `json:"outputs,omitempty"`
}

// RunState is written next to the project after every run.
type RunState struct {
	ID           string       `json:"id"`
	Person       string       `json:"person"`
	Slug         string       `json:"slug"`
	Package      string       `json:"package"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	ProjectPath  string       `json:"project_path,omitempty"`
	ShotListPath string       `json:"shot_list_path,omitempty"`
	TimelineEnd  float64      `json:"timeline_end_sec"`
	Steps        []StepResult `json:"steps"`
}

func newRunState(pkg string, now time.Time) *RunState {
	return &RunState{ID: uuid.NewString(), Package: pkg, StartedAt: now, Steps: []StepResult{}}
}

// Step returns the recorded result for name.
func (s *RunState) Step(name string) (StepResult, bool) {
	for _, st := range s.Steps {
		if st.Name == name {
			return st, true
		}
	}
	return StepResult{}, false
}

func WriteRunState(path string, s *RunState) error {
	return jsonfile.Write(path, s)
}

func ReadRunState(path string) (*RunState, error) {
	var s RunState
	if err := jsonfile.Read(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
