package store

import (
	"time"

	"github.com/google/uuid"
)

// RunSettings holds the solver configuration that produced a run, persisted
// alongside the result so a run can be reproduced.
type RunSettings struct {
	Objective     string    `json:"objective"`
	Dim           int       `json:"dim"`
	Strategy      string    `json:"strategy"`
	Init          string    `json:"init"`
	Mutation      float64   `json:"mutation,omitempty"`
	Dither        []float64 `json:"dither,omitempty"`
	Recombination float64   `json:"recombination"`
	Tol           float64   `json:"tol"`
	MaxIter       int       `json:"maxIter"`
	PopSize       int       `json:"popSize"`
	Seed          int64     `json:"seed"`
	Polish        bool      `json:"polish"`
	Lower         []float64 `json:"lower"`
	Upper         []float64 `json:"upper"`
}

// RunRecord is one completed optimization run.
type RunRecord struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`

	// Settings is the full solver configuration.
	Settings RunSettings `json:"settings"`

	// BestParams is the best parameter vector found, in real space.
	BestParams []float64 `json:"bestParams"`

	// BestCost is the objective value at BestParams.
	BestCost float64 `json:"bestCost"`

	// Gradient is the objective gradient at BestParams, present only when
	// polishing improved the result.
	Gradient []float64 `json:"gradient,omitempty"`

	// NumEvals counts objective evaluations, polishing included.
	NumEvals int `json:"numEvals"`

	// Generations is the number of completed generations.
	Generations int `json:"generations"`

	// Message describes how the run terminated.
	Message string `json:"message"`

	// Success reports whether the convergence tolerance was reached.
	Success bool `json:"success"`

	// StartedAt and FinishedAt bracket the solve call.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RunInfo is run metadata without the parameter vectors, for efficient
// listings.
type RunInfo struct {
	ID          string    `json:"id"`
	Objective   string    `json:"objective"`
	Strategy    string    `json:"strategy"`
	BestCost    float64   `json:"bestCost"`
	Generations int       `json:"generations"`
	Success     bool      `json:"success"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// NewRunID returns a fresh unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ToInfo converts a full RunRecord to its listing metadata.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		ID:          r.ID,
		Objective:   r.Settings.Objective,
		Strategy:    r.Settings.Strategy,
		BestCost:    r.BestCost,
		Generations: r.Generations,
		Success:     r.Success,
		FinishedAt:  r.FinishedAt,
	}
}
