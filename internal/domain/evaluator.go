package domain

import "context"

// EvaluationRequest is everything the engine needs for one run.
type EvaluationRequest struct {
	RunID    string           `json:"run_id"`
	RunName  string           `json:"run_name"`
	Cases    CaseCollection   `json:"cases"`
	Tasks    []EvaluationTask `json:"evaluation_objects"`
	Parallel ParallelConfig   `json:"parallel_config"`
}

// Evaluator scores forecasts against targets over a case subset. The
// implementation is an external engine; retries, partial failures and worker
// dispatch are its business.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) ([]ResultRow, error)
}
