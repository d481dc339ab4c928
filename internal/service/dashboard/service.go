package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/pkg/config"
)

const (
	defaultChunkSize  = 200
	maxUpcomingEvents = 10
	cacheKeyPrefix    = "dashboard:"
	generationPrefix  = "dashboard:gen:"
	initialGeneration = "0"
	defaultCacheTTL   = 5 * time.Minute
	defaultUpcoming   = 7 * 24 * time.Hour
	defaultLookback   = 30 * 24 * time.Hour
)

// Repositories groups the stores the summary reads from.
type Repositories struct {
	Animals    ports.AnimalRepository
	Health     ports.HealthRepository
	Production ports.ProductionRepository
	Tasks      ports.TaskRepository
	Calendar   ports.CalendarRepository
}

type Service struct {
	repos     Repositories
	cache     ports.Cache
	ttl       time.Duration
	chunkSize int
	upcoming  time.Duration
	lookback  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewService(repos Repositories, cache ports.Cache, cfg config.DashboardConfig, ttl time.Duration, log *zap.Logger) *Service {
	s := &Service{
		repos:     repos,
		cache:     cache,
		ttl:       ttl,
		chunkSize: cfg.ChunkSize,
		upcoming:  cfg.UpcomingWindow,
		lookback:  cfg.ProductionLookback,
		log:       log,
		now:       time.Now,
	}
	if s.chunkSize <= 0 {
		s.chunkSize = defaultChunkSize
	}
	if s.ttl <= 0 {
		s.ttl = defaultCacheTTL
	}
	if s.upcoming <= 0 {
		s.upcoming = defaultUpcoming
	}
	if s.lookback <= 0 {
		s.lookback = defaultLookback
	}
	return s
}

var _ ports.DashboardService = (*Service)(nil)

// Summary returns the cached summary for the farm, rebuilding it on a miss.
// Cache failures degrade to a fresh build.
func (s *Service) Summary(ctx context.Context, farmID string) (*domain.DashboardSummary, error) {
	if farmID == "" {
		return nil, fmt.Errorf("%w: farm is required", domain.ErrValidation)
	}

	gen, err := s.generation(ctx, farmID)
	if err != nil {
		s.log.Warn("Dashboard cache read failed", zap.String("farm_id", farmID), zap.Error(err))
		return s.build(ctx, farmID)
	}
	key := summaryKey(farmID, gen)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var summary domain.DashboardSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return &summary, nil
		}
		s.log.Warn("Discarding unreadable dashboard cache entry", zap.String("farm_id", farmID))
	} else if !errors.Is(err, ports.ErrCacheMiss) {
		s.log.Warn("Dashboard cache read failed", zap.String("farm_id", farmID), zap.Error(err))
	}

	summary, err := s.build(ctx, farmID)
	if err != nil {
		return nil, err
	}

	// Written under the generation read before the build, so an invalidation
	// that lands meanwhile leaves this entry unreachable.
	if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
		s.log.Warn("Dashboard cache write failed", zap.String("farm_id", farmID), zap.Error(err))
	}
	return summary, nil
}

// Invalidate moves the farm to a new cache generation so the next read
// rebuilds. Entries of older generations expire on their own.
func (s *Service) Invalidate(ctx context.Context, farmID string) error {
	return s.cache.Set(ctx, generationPrefix+farmID, uuid.NewString(), 0)
}

func (s *Service) generation(ctx context.Context, farmID string) (string, error) {
	gen, err := s.cache.Get(ctx, generationPrefix+farmID)
	if errors.Is(err, ports.ErrCacheMiss) {
		return initialGeneration, nil
	}
	return gen, err
}

func summaryKey(farmID, gen string) string {
	return cacheKeyPrefix + farmID + ":" + gen
}

func (s *Service) build(ctx context.Context, farmID string) (*domain.DashboardSummary, error) {
	now := s.now()
	summary := &domain.DashboardSummary{
		FarmID:           farmID,
		BySpecies:        map[string]int{},
		ByHealthStatus:   map[string]int{},
		ProductionTotals: map[string]float64{},
		UpcomingEvents:   []domain.CalendarEvent{},
		GeneratedAt:      now,
	}

	// Each goroutine writes disjoint summary fields.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.countAnimals(ctx, farmID, summary) })
	g.Go(func() error { return s.countTasks(ctx, farmID, now, summary) })
	g.Go(func() error { return s.collectEvents(ctx, farmID, now, summary) })
	g.Go(func() error { return s.countFollowUps(ctx, farmID, now, summary) })
	g.Go(func() error { return s.sumProduction(ctx, farmID, now, summary) })

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to build dashboard", zap.String("farm_id", farmID), zap.Error(err))
		return nil, err
	}

	s.log.Debug("Dashboard built",
		zap.String("farm_id", farmID),
		zap.Int("animals", summary.TotalAnimals),
		zap.Duration("took", s.now().Sub(now)),
	)
	return summary, nil
}

// countAnimals pages through the herd so large farms are never loaded at once.
func (s *Service) countAnimals(ctx context.Context, farmID string, summary *domain.DashboardSummary) error {
	for offset := 0; ; offset += s.chunkSize {
		page, err := s.repos.Animals.FindByFarm(ctx, farmID, ports.ListFilter{Limit: s.chunkSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("animals: %w", err)
		}
		for _, a := range page {
			summary.TotalAnimals++
			if a.Status == domain.AnimalStatusActive {
				summary.ActiveAnimals++
			}
			summary.BySpecies[a.Species]++
			summary.ByHealthStatus[string(a.HealthStatus)]++
		}
		if len(page) < s.chunkSize {
			return nil
		}
	}
}

func (s *Service) countTasks(ctx context.Context, farmID string, now time.Time, summary *domain.DashboardSummary) error {
	for _, status := range []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress} {
		tasks, err := s.repos.Tasks.FindByFarm(ctx, farmID, ports.ListFilter{Status: string(status)})
		if err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		for _, t := range tasks {
			summary.PendingTasks++
			if t.DueDate != nil && t.DueDate.Before(now) {
				summary.OverdueTasks++
			}
		}
	}
	return nil
}

func (s *Service) collectEvents(ctx context.Context, farmID string, now time.Time, summary *domain.DashboardSummary) error {
	to := now.Add(s.upcoming)
	events, err := s.repos.Calendar.FindByFarm(ctx, farmID, ports.ListFilter{From: &now, To: &to})
	if err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
	if len(events) > maxUpcomingEvents {
		events = events[:maxUpcomingEvents]
	}
	summary.UpcomingEvents = append(summary.UpcomingEvents, events...)
	return nil
}

// countFollowUps counts health records whose next check falls due within the
// upcoming window, overdue ones included.
func (s *Service) countFollowUps(ctx context.Context, farmID string, now time.Time, summary *domain.DashboardSummary) error {
	records, err := s.repos.Health.FindByFarm(ctx, farmID, ports.ListFilter{})
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	horizon := now.Add(s.upcoming)
	for _, r := range records {
		if r.NextCheckDate != nil && r.NextCheckDate.Before(horizon) {
			summary.FollowUps++
		}
	}
	return nil
}

func (s *Service) sumProduction(ctx context.Context, farmID string, now time.Time, summary *domain.DashboardSummary) error {
	from := now.Add(-s.lookback)
	records, err := s.repos.Production.FindByFarm(ctx, farmID, ports.ListFilter{From: &from})
	if err != nil {
		return fmt.Errorf("production: %w", err)
	}
	for _, r := range records {
		summary.ProductionTotals[string(r.Type)] += r.Quantity
	}
	return nil
}
