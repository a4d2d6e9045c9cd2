package service

import (
	"context"
	"sync"
	"time"

	"receivingapi/internal/config"
	"receivingapi/internal/model"
	"receivingapi/internal/repository"
)

// Snapshot is the single global dashboard value. It is memoized with a TTL
// guard to bound load from dashboard polling; writes do not invalidate it
// (eventual consistency is acceptable here).
type Snapshot struct {
	Counts               map[model.DocumentStatus]int `json:"counts"`
	AvgCompletionSeconds float64                      `json:"avg_completion_seconds"`
	OpenByAssignee       map[string]int               `json:"open_by_assignee"`
	GeneratedAt          time.Time                    `json:"generated_at"`
}

// Stats is the full read-side projection.
type Stats struct {
	Counts               map[model.DocumentStatus]int `json:"counts"`
	AvgCompletionSeconds float64                      `json:"avg_completion_seconds"`
	OpenByAssignee       map[string]int               `json:"open_by_assignee"`
}

// TodayStats covers the current day (UTC midnight boundary).
type TodayStats struct {
	Created       int `json:"created"`
	Completed     int `json:"completed"`
	ItemsReceived int `json:"items_received"`
}

// DashboardService serves the read-side projections over the document store.
type DashboardService interface {
	ActiveReceivings(ctx context.Context) (*DocumentListResult, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
	Stats(ctx context.Context) (*Stats, error)
	TodayStats(ctx context.Context) (*TodayStats, error)
}

type dashboardService struct {
	repo repository.ReceivingRepository
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	cached    *Snapshot
	fetchedAt time.Time
}

// NewDashboardService constructs the dashboard projections.
func NewDashboardService(repo repository.ReceivingRepository, cfg config.ReceivingConfig) DashboardService {
	return &dashboardService{
		repo: repo,
		ttl:  time.Duration(cfg.SnapshotTTLSec) * time.Second,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

const activeListLimit = 200

// ActiveReceivings lists documents currently being worked (IN_PROGRESS or
// ON_HOLD) plus unstarted DRAFTs.
func (s *dashboardService) ActiveReceivings(ctx context.Context) (*DocumentListResult, error) {
	res, err := s.repo.ListDocuments(ctx, repository.DocumentQuery{
		Statuses: []model.DocumentStatus{model.StatusDraft, model.StatusInProgress, model.StatusOnHold},
		Limit:    activeListLimit,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Snapshot returns the cached dashboard value, refreshing it only when the
// TTL has expired. The cache key has no parameters: one global snapshot.
func (s *dashboardService) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	snap, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = snap
	s.fetchedAt = s.now()
	return snap, nil
}

func (s *dashboardService) build(ctx context.Context) (*Snapshot, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.repo.AvgCompletionSeconds(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.repo.OpenCountByAssignee(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Counts:               counts,
		AvgCompletionSeconds: avg,
		OpenByAssignee:       open,
		GeneratedAt:          s.now(),
	}, nil
}

// Stats is the uncached projection.
func (s *dashboardService) Stats(ctx context.Context) (*Stats, error) {
	snap, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Counts:               snap.Counts,
		AvgCompletionSeconds: snap.AvgCompletionSeconds,
		OpenByAssignee:       snap.OpenByAssignee,
	}, nil
}

func (s *dashboardService) TodayStats(ctx context.Context) (*TodayStats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	created, err := s.repo.CreatedSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.CompletedSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	received, err := s.repo.ItemsReceivedSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	return &TodayStats{Created: created, Completed: completed, ItemsReceived: received}, nil
}
