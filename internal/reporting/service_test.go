package reporting

import (
	"context"
	"testing"
	"time"

	"callagent-platform/internal/calls"
	"callagent-platform/internal/leads"
)

func TestReporting_AgentIsolation(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []calls.CallRecord{
		{CallID: "c1", AgentID: "a1", Status: calls.CallStatusCompleted, DurationSeconds: 30, CreatedAt: now},
		{CallID: "c2", AgentID: "a2", Status: calls.CallStatusCompleted, DurationSeconds: 50, CreatedAt: now},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{AgentID: "a1", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call, got %d", out.TotalCalls)
	}
}

func TestReporting_CallsSummaryAggregates(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []calls.CallRecord{
		{CallID: "c1", AgentID: "a", Status: calls.CallStatusCompleted, DurationSeconds: 30, RecordingURL: "https://api.twilio.com/rec/c1", CreatedAt: now},
		{CallID: "c2", AgentID: "a", Status: calls.CallStatusCompleted, DurationSeconds: 50, CreatedAt: now},
		{CallID: "c3", AgentID: "a", Status: calls.CallStatusFailed, CreatedAt: now},
		{CallID: "c4", AgentID: "a", Status: calls.CallStatusInProgress, CreatedAt: now},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{AgentID: "a", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 4 || out.CompletedCalls != 2 || out.FailedCalls != 1 || out.InProgressCalls != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.RecordedCalls != 1 {
		t.Fatalf("expected 1 recorded call, got %d", out.RecordedCalls)
	}
	if out.TotalDurationSeconds != 80 || out.AverageDurationSeconds != 20 {
		t.Fatalf("unexpected durations: %+v", out)
	}
}

func TestReporting_TimeRangeFiltering(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []calls.CallRecord{
		{CallID: "c1", AgentID: "a", Status: calls.CallStatusCompleted, CreatedAt: now},
		{CallID: "c2", AgentID: "a", Status: calls.CallStatusCompleted, CreatedAt: now.Add(-48 * time.Hour)},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{AgentID: "a", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call inside range, got %d", out.TotalCalls)
	}
}

func TestReporting_LeadMetrics(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []calls.CallRecord{
		{CallID: "c1", AgentID: "a", Status: calls.CallStatusCompleted, CreatedAt: now},
		{CallID: "c2", AgentID: "a", Status: calls.CallStatusCompleted, CreatedAt: now},
		{CallID: "c3", AgentID: "a", Status: calls.CallStatusFailed, CreatedAt: now},
	}
	repo.Leads = []leads.Lead{
		{ID: "l1", CallID: "c1", AgentID: "a", InterestScore: 80, CreatedAt: now},
	}
	svc := NewService(repo)

	m, err := svc.LeadMetrics(context.Background(), LeadMetricsRequest{AgentID: "a", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.CallsCompleted != 2 || m.LeadsExtracted != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if m.ConversionRate != 0.5 {
		t.Fatalf("expected conversion rate 0.5, got %v", m.ConversionRate)
	}
	if m.AverageInterestScore != 80 {
		t.Fatalf("expected average interest 80, got %v", m.AverageInterestScore)
	}
}

func TestReporting_InvalidRequest(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	now := time.Unix(1700000000, 0).UTC()

	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{Range: TimeRange{From: now, To: now.Add(time.Hour)}}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for missing agent, got %v", err)
	}
	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{AgentID: "a", Range: TimeRange{From: now, To: now}}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for empty range, got %v", err)
	}
}
