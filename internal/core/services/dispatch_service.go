package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/platform"
	"github.com/znakly/agent/internal/infrastructure/storage"
)

// DispatchService submits one report-generation request per configured
// product group and records the successful ones in the task registry.
type DispatchService struct {
	client   *platform.Client
	store    *storage.Store
	registry *TaskRegistry
	logger   *logger.Logger
	cfg      config.DispenserConfig
	now      func() time.Time
}

type DispatchServiceConfig struct {
	Client   *platform.Client
	Store    *storage.Store
	Registry *TaskRegistry
	Logger   *logger.Logger
	Config   config.DispenserConfig
}

func NewDispatchService(cfg DispatchServiceConfig) *DispatchService {
	return &DispatchService{
		client:   cfg.Client,
		store:    cfg.Store,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		cfg:      cfg.Config,
		now:      time.Now,
	}
}

// SubmitAll runs one submission round over the preceding calendar week.
// Product groups are processed in configured order and independently: one
// failure never aborts the rest, and the returned outcome list matches the
// input order. The round ends with a single atomic registry update that
// evicts expired records and appends the new batch.
func (s *DispatchService) SubmitAll(ctx context.Context) ([]string, error) {
	token, err := s.store.LoadToken()
	if err != nil {
		return nil, err
	}

	today := s.now()
	weekStart, weekEnd := previousWeek(today)
	startDate := weekStart.Format(domain.DateLayout)
	endDate := weekEnd.Format(domain.DateLayout)

	params, err := json.Marshal(map[string][]int{
		"violationCategory": s.cfg.ViolationCategories,
		"violationKind":     s.cfg.ViolationKinds,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: failed to encode params: %w", err)
	}

	s.logger.Infow("submission_round_started",
		"period_start", startDate,
		"period_end", endDate,
		"product_groups", s.cfg.ProductGroups,
	)

	outcomes := make([]string, 0, len(s.cfg.ProductGroups))
	var batch []domain.TaskRecord

	for _, code := range s.cfg.ProductGroups {
		req := platform.TaskRequest{
			Name:             s.cfg.ReportName,
			DataStartDate:    startDate,
			DataEndDate:      endDate,
			Format:           s.cfg.Format,
			Periodicity:      s.cfg.Periodicity,
			Params:           string(params),
			ProductGroupCode: code,
		}

		descriptor, err := s.client.CreateTask(ctx, token, req)
		if err != nil {
			s.logger.Warnw("task_submission_failed", "product_group", code, "error", err)
			outcomes = append(outcomes, fmt.Sprintf(
				"failed to create task for %s (pg=%d): %v",
				domain.ProductGroupName(code), code, err,
			))
			continue
		}

		createdAt, parseErr := time.ParseInLocation(domain.DateLayout, descriptor.CreateDate, today.Location())
		if parseErr != nil {
			createdAt = today
		}

		batch = append(batch, domain.TaskRecord{
			ID:               descriptor.ID,
			ProductGroupCode: descriptor.ProductGroupCode,
			PeriodStart:      descriptor.DataStartDate,
			PeriodEnd:        descriptor.DataEndDate,
			Status:           descriptor.CurrentStatus,
			CreatedAt:        createdAt,
		})
		outcomes = append(outcomes, fmt.Sprintf(
			"task created for %s (pg=%d, id=%s)",
			domain.ProductGroupName(code), code, descriptor.ID,
		))
		s.logger.Infow("task_created",
			"task_id", descriptor.ID,
			"product_group", descriptor.ProductGroupCode,
			"status", descriptor.CurrentStatus,
		)
	}

	retention := time.Duration(s.cfg.RetentionDays) * 24 * time.Hour
	s.registry.ApplyRound(batch, today, retention)

	return outcomes, nil
}

// previousWeek returns the Monday and Sunday of the last full ISO-8601
// calendar week relative to today, in today's location.
func previousWeek(today time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(today.Weekday()) + 6) % 7
	currentMonday := today.AddDate(0, 0, -daysSinceMonday)
	start := currentMonday.AddDate(0, 0, -7)
	return start, start.AddDate(0, 0, 6)
}
