package journal

import "time"

// SweepStatus represents the lifecycle state of a recorded sweep run.
type SweepStatus string

const (
	SweepStatusRunning   SweepStatus = "running"
	SweepStatusCompleted SweepStatus = "completed"
	SweepStatusFailed    SweepStatus = "failed"
)

// Sweep is one recorded sweep invocation. Re-running a sweep with the
// same user-visible sweep ID produces a new row with a new run ID.
type Sweep struct {
	ID          string      `json:"id"`
	SweepID     string      `json:"sweep_id"`
	Command     string      `json:"command"`
	Length      int         `json:"length"`
	Status      SweepStatus `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Simulation is one dispatched simulation within a sweep run. Params
// holds the parameter bindings as a JSON object.
type Simulation struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	SimID     string    `json:"sim_id"`
	Params    string    `json:"params"`
	CreatedAt time.Time `json:"created_at"`
}
