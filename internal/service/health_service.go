package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
)

// uptimeWindow bounds the aggregation window for the status endpoint.
const uptimeWindow = 24 * time.Hour

type healthRepository interface {
	Create(ctx context.Context, check *models.BotHealthCheck) error
	Latest(ctx context.Context) (*models.BotHealthCheck, error)
	WindowStats(ctx context.Context, since time.Time) (uptimePercent, avgResponseMs float64, err error)
}

type sessionProber interface {
	SessionStatus(ctx context.Context) (string, error)
}

// HealthConfig tunes the gateway monitor.
type HealthConfig struct {
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// HealthService probes the WAHA session on an interval and records the
// results, giving the dashboard an uptime view of the gateway.
type HealthService struct {
	repo   healthRepository
	prober sessionProber
	cfg    HealthConfig
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHealthService constructs a HealthService instance.
func NewHealthService(repo healthRepository, prober sessionProber, cfg HealthConfig, logger *zap.Logger) *HealthService {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthService{repo: repo, prober: prober, cfg: cfg, logger: logger}
}

// Start launches the probe loop. Safe to call once.
func (s *HealthService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(loopCtx)
	s.logger.Info("gateway health monitor started", zap.Duration("interval", s.cfg.CheckInterval))
}

// Stop cancels the probe loop and waits for it to exit.
func (s *HealthService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *HealthService) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	s.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *HealthService) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	defer cancel()

	check := &models.BotHealthCheck{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	start := time.Now()
	status, err := s.prober.SessionStatus(probeCtx)
	elapsed := float64(time.Since(start).Milliseconds())

	switch {
	case err != nil:
		message := err.Error()
		check.Status = models.HealthError
		check.ErrorMessage = &message
	case status == "WORKING":
		check.Status = models.HealthOnline
		check.SessionStatus = status
		check.ResponseTimeMs = &elapsed
	default:
		check.Status = models.HealthOffline
		check.SessionStatus = status
		check.ResponseTimeMs = &elapsed
	}

	if err := s.repo.Create(ctx, check); err != nil {
		s.logger.Warn("failed to record health check", zap.Error(err))
		return
	}
	if check.Status != models.HealthOnline {
		s.logger.Warn("gateway unhealthy",
			zap.String("status", string(check.Status)),
			zap.String("session_status", check.SessionStatus),
		)
	}
}

// Status aggregates the latest check with the last 24 hours of history.
func (s *HealthService) Status(ctx context.Context) (*models.BotStatus, error) {
	latest, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.BotStatus{Status: models.HealthOffline}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest health check")
	}

	uptime, avgResponse, err := s.repo.WindowStats(ctx, time.Now().UTC().Add(-uptimeWindow))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate health history")
	}

	return &models.BotStatus{
		Status:        latest.Status,
		SessionStatus: latest.SessionStatus,
		LastCheck:     &latest.CreatedAt,
		UptimePercent: uptime,
		AvgResponseMs: avgResponse,
	}, nil
}
