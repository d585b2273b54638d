package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/repositories"
)

type stubHealthRepository struct {
	collect func(ctx context.Context) (domain.SystemHealthReport, error)
}

func (s *stubHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	return s.collect(ctx)
}

func checksReport(checks map[string]domain.SystemHealthCheck) *stubHealthRepository {
	return &stubHealthRepository{collect: func(context.Context) (domain.SystemHealthReport, error) {
		return domain.SystemHealthReport{Checks: checks}, nil
	}}
}

func TestSystemServiceDerivesStatusFromChecks(t *testing.T) {
	cases := map[string]struct {
		checks map[string]domain.SystemHealthCheck
		want   string
	}{
		"all ok": {
			checks: map[string]domain.SystemHealthCheck{
				"storage": {Status: domain.HealthStatusOK},
				"redis":   {Status: domain.HealthStatusOK},
			},
			want: domain.HealthStatusOK,
		},
		"pubsub degraded": {
			checks: map[string]domain.SystemHealthCheck{
				"storage": {Status: domain.HealthStatusOK},
				"pubsub":  {Status: domain.HealthStatusDegraded},
			},
			want: domain.HealthStatusDegraded,
		},
		"redis down wins over degraded": {
			checks: map[string]domain.SystemHealthCheck{
				"pubsub": {Status: domain.HealthStatusDegraded},
				"redis":  {Status: domain.HealthStatusError},
			},
			want: domain.HealthStatusError,
		},
		"no checks": {want: domain.HealthStatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, err := NewSystemService(SystemServiceDeps{HealthRepository: checksReport(tc.checks)})
			if err != nil {
				t.Fatalf("NewSystemService: %v", err)
			}
			report, err := svc.HealthReport(context.Background())
			if err != nil {
				t.Fatalf("HealthReport: %v", err)
			}
			if report.Status != tc.want {
				t.Fatalf("expected status %s, got %s", tc.want, report.Status)
			}
			if report.Checks == nil {
				t.Fatalf("expected non-nil checks map")
			}
		})
	}
}

func TestSystemServiceFillsBuildMetadataAndUptime(t *testing.T) {
	started := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	now := started.Add(90 * time.Minute)
	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: checksReport(nil),
		Clock:            func() time.Time { return now },
		Build:            BuildInfo{Version: "1.4.0", Environment: "production", StartedAt: started},
	})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Version != "1.4.0" || report.Environment != "production" {
		t.Fatalf("expected build metadata, got version=%q env=%q", report.Version, report.Environment)
	}
	if report.Uptime != 90*time.Minute {
		t.Fatalf("expected 90m uptime, got %s", report.Uptime)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("expected generated at %s, got %s", now, report.GeneratedAt)
	}
}

func TestSystemServiceKeepsRepositoryValues(t *testing.T) {
	generated := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.FixedZone("COT", -5*3600))
	repo := &stubHealthRepository{collect: func(context.Context) (domain.SystemHealthReport, error) {
		return domain.SystemHealthReport{
			Status:      domain.HealthStatusDegraded,
			Version:     "from-repo",
			GeneratedAt: generated,
		}, nil
	}}
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo, Build: BuildInfo{Version: "ignored"}})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded || report.Version != "from-repo" {
		t.Fatalf("expected repository values to win, got %+v", report)
	}
	if report.GeneratedAt.Location() != time.UTC {
		t.Fatalf("expected generated at normalised to UTC, got %s", report.GeneratedAt.Location())
	}
}

func TestSystemServicePropagatesCollectError(t *testing.T) {
	expected := errors.New("probe crashed")
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: &stubHealthRepository{
		collect: func(context.Context) (domain.SystemHealthReport, error) { return domain.SystemHealthReport{}, expected },
	}})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}
	if _, err := svc.HealthReport(context.Background()); !errors.Is(err, expected) {
		t.Fatalf("expected collect error, got %v", err)
	}
}

func TestSystemServiceWithDependencyRepository(t *testing.T) {
	repo, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{Name: "storage", Critical: true, Check: func(context.Context) error { return nil }},
		{Name: "pubsub", Check: func(context.Context) error { return errors.New("topic missing") }},
	})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("expected non-critical failure to degrade, got %s", report.Status)
	}
	if report.Checks["pubsub"].Status == domain.HealthStatusOK {
		t.Fatalf("expected pubsub check to report failure, got %+v", report.Checks["pubsub"])
	}
}

func TestNewSystemServiceRequiresRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatalf("expected error without health repository")
	}
}
