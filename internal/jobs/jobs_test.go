package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-suite/internal/jobs"

	"go.uber.org/zap"
)

func TestScheduler_AddValidatesSpec(t *testing.T) {
	s := jobs.NewScheduler(time.UTC, zap.NewNop())
	noop := func(ctx context.Context, now time.Time) (int, error) { return 0, nil }

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"@every 1m", false},
		{"0 */5 * * * *", false},
		{"*/5 * * * *", false},
		{"@hourly", false},
		{"every minute", true},
	}
	for _, tt := range tests {
		err := s.Add(jobs.Task{Name: "noop", Spec: tt.spec, Run: noop})
		if (err != nil) != tt.wantErr {
			t.Errorf("Add(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
		}
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	s := jobs.NewScheduler(nil, zap.NewNop())

	var seen time.Time
	n, err := s.RunOnce(context.Background(), jobs.Task{
		Name: "count",
		Spec: "@every 1m",
		Run: func(ctx context.Context, now time.Time) (int, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("expected job context to carry a deadline")
			}
			seen = now
			return 3, nil
		},
	})
	if err != nil || n != 3 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	if seen.IsZero() {
		t.Errorf("job did not receive the current time")
	}

	boom := errors.New("boom")
	_, err = s.RunOnce(context.Background(), jobs.Task{
		Name: "fail",
		Run:  func(ctx context.Context, now time.Time) (int, error) { return 0, boom },
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected job error to be returned, got %v", err)
	}
}
