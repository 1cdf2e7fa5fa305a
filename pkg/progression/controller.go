package progression

import (
	"context"
	"sync"
	"time"

	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/observability/metrics"
)

// Backend is the slice of the progression API the controller drives.
type Backend interface {
	CurrentCycle(ctx context.Context) (*models.CycleMetadata, error)
	AdvanceCycle(ctx context.Context) (*models.AdvanceResult, error)
	ResetSimulation(ctx context.Context) error
}

// EventPublisher matches kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Controller guards the two cohort-wide operations. At most one advance and
// one reset are in flight at a time, and never both: a trigger arriving
// while the other operation runs is rejected outright, not queued.
type Controller struct {
	backend Backend
	audit   *AuditTrail
	bus     EventPublisher
	dlq     EventPublisher
	source  string
	now     func() time.Time

	mu         sync.Mutex
	advancing  bool
	resetting  bool
	metadata   *models.CycleMetadata
	lastResult *models.AdvanceResult
}

type Option func(*Controller)

func WithAuditTrail(trail *AuditTrail) Option {
	return func(c *Controller) { c.audit = trail }
}

func WithEventBus(bus, dlq EventPublisher, source string) Option {
	return func(c *Controller) {
		c.bus = bus
		c.dlq = dlq
		if source != "" {
			c.source = source
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		source:  "dashboard-service",
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State is a point-in-time snapshot for display.
type State struct {
	Metadata   *models.CycleMetadata `json:"cycle_metadata,omitempty"`
	Advancing  bool                  `json:"advancing"`
	Resetting  bool                  `json:"resetting"`
	LastResult *models.AdvanceResult `json:"last_result,omitempty"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := State{Advancing: c.advancing, Resetting: c.resetting}
	if c.metadata != nil {
		meta := *c.metadata
		state.Metadata = &meta
	}
	if c.lastResult != nil {
		result := *c.lastResult
		state.LastResult = &result
	}
	return state
}

// Refresh fetches the authoritative cycle metadata and stores the snapshot.
func (c *Controller) Refresh(ctx context.Context) (*models.CycleMetadata, error) {
	meta, err := c.backend.CurrentCycle(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.metadata = meta
	c.mu.Unlock()
	return meta, nil
}

// Advance runs one cohort-wide cycle advance. When the snapshot already sits
// at the final cycle the call is rejected before any network traffic. On
// success the metadata is re-fetched from the backend rather than
// incremented locally, so racing advance sources cannot desynchronize the
// display, and the result is retained until the next advance or a reset.
func (c *Controller) Advance(ctx context.Context) (*models.AdvanceResult, error) {
	c.mu.Lock()
	if c.advancing {
		c.mu.Unlock()
		return nil, ErrAdvanceInFlight
	}
	if c.resetting {
		c.mu.Unlock()
		return nil, ErrResetInFlight
	}
	if c.metadata != nil && c.metadata.TotalCycles > 0 && c.metadata.CurrentCycle >= c.metadata.TotalCycles {
		c.mu.Unlock()
		return nil, ErrCycleLimitReached
	}
	c.advancing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.advancing = false
		c.mu.Unlock()
	}()

	started := c.now().UTC()
	result, err := c.backend.AdvanceCycle(ctx)
	completed := c.now().UTC()
	if err != nil {
		metrics.IncCycleAdvance(false)
		c.recordAdvance(ctx, nil, err, started, completed)
		return nil, err
	}
	metrics.IncCycleAdvance(true)

	meta, refreshErr := c.backend.CurrentCycle(ctx)
	if refreshErr != nil {
		logger.Log.WithError(refreshErr).Warn("cycle metadata refresh after advance failed")
	}

	c.mu.Lock()
	c.lastResult = result
	if meta != nil {
		c.metadata = meta
	}
	c.mu.Unlock()

	c.recordAdvance(ctx, result, nil, started, completed)
	c.publish(ctx, models.EventCycleAdvanced, map[string]interface{}{
		"new_cycle":            result.NewCycle,
		"patients_processed":   result.PatientsProcessed,
		"transitions_detected": result.TransitionsDetected,
		"alerts_generated":     result.AlertsGenerated,
		"treatment_changes":    result.TreatmentChanges,
		"processing_time_ms":   result.ProcessingTimeMs,
	})

	return result, nil
}

// Reset runs the destructive cohort reset. The caller must have collected an
// explicit confirmation first; without it the call is rejected before any
// network traffic. A completed reset drops the retained advance result.
func (c *Controller) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	c.mu.Lock()
	if c.resetting {
		c.mu.Unlock()
		return ErrResetInFlight
	}
	if c.advancing {
		c.mu.Unlock()
		return ErrAdvanceInFlight
	}
	c.resetting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.resetting = false
		c.mu.Unlock()
	}()

	started := c.now().UTC()
	err := c.backend.ResetSimulation(ctx)
	completed := c.now().UTC()
	if err != nil {
		metrics.IncSimulationReset(false)
		c.recordReset(ctx, err, started, completed)
		return err
	}
	metrics.IncSimulationReset(true)

	meta, refreshErr := c.backend.CurrentCycle(ctx)
	if refreshErr != nil {
		logger.Log.WithError(refreshErr).Warn("cycle metadata refresh after reset failed")
	}

	c.mu.Lock()
	c.lastResult = nil
	if meta != nil {
		c.metadata = meta
	}
	c.mu.Unlock()

	c.recordReset(ctx, nil, started, completed)
	c.publish(ctx, models.EventCycleReset, map[string]interface{}{
		"reset_at": completed.Format(time.RFC3339),
	})

	return nil
}

func (c *Controller) recordAdvance(ctx context.Context, result *models.AdvanceResult, opErr error, started, completed time.Time) {
	if c.audit == nil {
		return
	}
	if err := c.audit.RecordAdvance(ctx, result, opErr, started, completed); err != nil {
		logger.Log.WithError(err).Warn("failed to append advance to audit trail")
	}
}

func (c *Controller) recordReset(ctx context.Context, opErr error, started, completed time.Time) {
	if c.audit == nil {
		return
	}
	if err := c.audit.RecordReset(ctx, opErr, started, completed); err != nil {
		logger.Log.WithError(err).Warn("failed to append reset to audit trail")
	}
}

func (c *Controller) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.bus == nil {
		return
	}
	if err := c.bus.PublishEvent(ctx, eventType, c.source, data); err != nil {
		logger.Log.WithError(err).Error("failed to publish cohort event")
		if c.dlq != nil {
			if dlqErr := c.dlq.PublishEvent(ctx, eventType, c.source, data); dlqErr != nil {
				logger.Log.WithError(dlqErr).Error("failed to push cohort event to DLQ")
			}
		}
	}
}
