package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics for one agent.

type CallsSummaryRequest struct {
	AgentID string    `json:"agent_id"`
	Range   TimeRange `json:"range"`
}

type CallsSummary struct {
	AgentID string `json:"agent_id"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls int `json:"recorded_calls"`
}

// LeadMetricsRequest captures how well an agent's calls convert into leads.

type LeadMetricsRequest struct {
	AgentID string    `json:"agent_id"`
	Range   TimeRange `json:"range"`
}

type LeadMetrics struct {
	AgentID string `json:"agent_id"`

	CallsCompleted int `json:"calls_completed"`
	LeadsExtracted int `json:"leads_extracted"`

	AverageInterestScore float64 `json:"average_interest_score"`
	ConversionRate       float64 `json:"conversion_rate"`
}
