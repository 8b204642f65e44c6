package services

import (
	"context"
	"sync"
	"time"

	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/platform"
	"github.com/znakly/agent/internal/infrastructure/storage"
)

// PollerService reconciles the task registry against server-reported status
// on a fixed interval and exposes a read-only snapshot for the UI. One
// task's poll failure never blocks the others, and the snapshot is replaced
// as a whole once every task in the cycle has been queried.
type PollerService struct {
	client       *platform.Client
	store        *storage.Store
	registry     *TaskRegistry
	logger       *logger.Logger
	interval     time.Duration
	initialDelay time.Duration

	mu        sync.RWMutex
	views     []domain.TaskStatusView
	lastCycle time.Time
	running   bool

	stop     chan struct{}
	stopOnce sync.Once
}

type PollerServiceConfig struct {
	Client   *platform.Client
	Store    *storage.Store
	Registry *TaskRegistry
	Logger   *logger.Logger
	Config   config.DispenserConfig
}

func NewPollerService(cfg PollerServiceConfig) *PollerService {
	interval := cfg.Config.PollInterval
	if interval == 0 {
		interval = 30 * time.Second
	}
	initialDelay := cfg.Config.PollInitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}
	return &PollerService{
		client:       cfg.Client,
		store:        cfg.Store,
		registry:     cfg.Registry,
		logger:       cfg.Logger,
		interval:     interval,
		initialDelay: initialDelay,
		stop:         make(chan struct{}),
	}
}

// Start launches the background loop. Safe to call more than once.
func (p *PollerService) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Infow("poller_started",
		"interval", p.interval,
		"initial_delay", p.initialDelay,
	)
	go p.run()
}

// Stop terminates the loop. Idempotent.
func (p *PollerService) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *PollerService) run() {
	timer := time.NewTimer(p.initialDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-p.stop:
		return
	}

	p.PollOnce(context.Background())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.PollOnce(context.Background())
		case <-p.stop:
			return
		}
	}
}

// PollOnce queries the status of every task in the current registry
// snapshot and replaces the status view list as a unit.
func (p *PollerService) PollOnce(ctx context.Context) {
	token, err := p.store.LoadToken()
	if err != nil {
		p.logger.Warnw("poll_cycle_skipped", "error", err)
		return
	}

	records := p.registry.Snapshot()
	views := make([]domain.TaskStatusView, 0, len(records))

	for _, record := range records {
		status, err := p.client.TaskStatus(ctx, token, record.ID, record.ProductGroupCode)
		if err != nil {
			p.logger.Warnw("task_poll_failed",
				"task_id", record.ID,
				"product_group", record.ProductGroupCode,
				"error", err,
			)
			views = append(views, domain.TaskStatusView{
				ID:               record.ID,
				ProductGroupCode: record.ProductGroupCode,
				ProductGroup:     domain.ProductGroupName(record.ProductGroupCode),
				Status:           domain.StatusError,
				CreateDate:       record.CreatedAt.Format(domain.DateLayout),
				IsCompleted:      false,
				Error:            err.Error(),
			})
			continue
		}

		p.registry.UpdateStatus(record.ID, status.CurrentStatus)
		views = append(views, domain.TaskStatusView{
			ID:               status.ID,
			ProductGroupCode: status.ProductGroupCode,
			ProductGroup:     domain.ProductGroupName(status.ProductGroupCode),
			Status:           status.CurrentStatus,
			CreateDate:       status.CreateDate,
			IsCompleted:      status.CurrentStatus == domain.StatusCompleted,
			DownloadURL:      status.DownloadURL,
		})
	}

	p.mu.Lock()
	p.views = views
	p.lastCycle = time.Now()
	p.mu.Unlock()

	p.logger.Debugw("poll_cycle_done", "tasks", len(views))
}

// Views returns the snapshot produced by the latest completed poll cycle.
func (p *PollerService) Views() []domain.TaskStatusView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	views := make([]domain.TaskStatusView, len(p.views))
	copy(views, p.views)
	return views
}

func (p *PollerService) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *PollerService) LastCycle() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastCycle
}
