package dashboard

import (
	"context"
	"time"

	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/indicators"
	"github.com/renalview/monitor/pkg/observability/metrics"
	"github.com/renalview/monitor/pkg/progression"
	"github.com/renalview/monitor/pkg/risksummary"
	"github.com/renalview/monitor/pkg/terminology"
	"github.com/renalview/monitor/pkg/timeline"
)

// Backend is the slice of the progression client the assembly service reads
// from.
type Backend interface {
	Patients(ctx context.Context) ([]models.PatientRecord, error)
	Patient(ctx context.Context, patientID string) (*models.PatientRecord, error)
	PatientObservations(ctx context.Context, patientID string) ([]models.Observation, error)
	PatientHistory(ctx context.Context, patientID string) ([]models.HealthStateHistory, error)
	PatientTreatments(ctx context.Context, patientID string) ([]models.Treatment, error)
	Analyze(ctx context.Context, patientID string, opts models.AnalyzeOptions) (*models.AnalysisOutcome, error)
}

// Service assembles display-ready dashboard payloads from backend records
// and the pure transforms in timeline, indicators and risksummary. Every
// payload is recomputable from backend data alone; the cache is a
// transport-level shortcut, never a source of truth.
type Service struct {
	backend    Backend
	controller *progression.Controller
	catalog    terminology.Catalog
	cache      *Cache
	feed       *Feed
	audit      *progression.AuditTrail
	now        func() time.Time
}

type ServiceOption func(*Service)

func WithCache(cache *Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithFeed(feed *Feed) ServiceOption {
	return func(s *Service) { s.feed = feed }
}

func WithAudit(audit *progression.AuditTrail) ServiceOption {
	return func(s *Service) { s.audit = audit }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(backend Backend, controller *progression.Controller, catalog terminology.Catalog, opts ...ServiceOption) *Service {
	s := &Service{
		backend:    backend,
		controller: controller,
		catalog:    catalog,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PatientDashboard is the full per-patient view: the record, derived
// indicators, the folded cycle series with its per-metric views, the
// progression trace and active treatments.
type PatientDashboard struct {
	Patient             models.PatientRecord        `json:"patient"`
	Indicators          indicators.Indicators       `json:"indicators"`
	ActiveFlags         []string                    `json:"active_flags"`
	Series              []models.CyclePoint         `json:"series"`
	SkippedObservations int                         `json:"skipped_observations"`
	Metrics             []timeline.MetricView       `json:"metrics"`
	History             []models.HealthStateHistory `json:"progression_history"`
	CurrentState        *models.HealthStateHistory  `json:"current_state,omitempty"`
	Treatments          []models.Treatment          `json:"treatments"`
	GeneratedAt         time.Time                   `json:"generated_at"`
}

func (s *Service) PatientDashboard(ctx context.Context, patientID string) (*PatientDashboard, error) {
	key := cacheKey(patientID, s.currentCycle())
	var cached PatientDashboard
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	record, err := s.backend.Patient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	observations, err := s.backend.PatientObservations(ctx, patientID)
	if err != nil {
		return nil, err
	}
	history, err := s.backend.PatientHistory(ctx, patientID)
	if err != nil {
		return nil, err
	}
	treatments, err := s.backend.PatientTreatments(ctx, patientID)
	if err != nil {
		return nil, err
	}

	folded := timeline.Normalize(observations)
	metrics.AddSkippedObservations(folded.Skipped)
	derived := indicators.Derive(indicators.FromRecord(*record))

	board := &PatientDashboard{
		Patient:             *record,
		Indicators:          derived,
		ActiveFlags:         derived.ActiveFlags(),
		Series:              folded.Series,
		SkippedObservations: folded.Skipped,
		Metrics:             timeline.BuildViews(folded.Series, s.catalog),
		History:             history,
		Treatments:          treatments,
		GeneratedAt:         s.now().UTC(),
	}
	if len(history) > 0 {
		latest := history[len(history)-1]
		for _, entry := range history {
			if entry.CycleNumber > latest.CycleNumber {
				latest = entry
			}
		}
		board.CurrentState = &latest
	}

	s.cache.set(ctx, key, board)
	return board, nil
}

// PatientSeries is the chart payload alone: the folded wide rows plus the
// per-metric trend/static classification.
type PatientSeries struct {
	PatientID           string                `json:"patient_id"`
	Series              []models.CyclePoint   `json:"series"`
	SkippedObservations int                   `json:"skipped_observations"`
	Metrics             []timeline.MetricView `json:"metrics"`
}

func (s *Service) PatientSeries(ctx context.Context, patientID string) (*PatientSeries, error) {
	observations, err := s.backend.PatientObservations(ctx, patientID)
	if err != nil {
		return nil, err
	}
	folded := timeline.Normalize(observations)
	metrics.AddSkippedObservations(folded.Skipped)
	return &PatientSeries{
		PatientID:           patientID,
		Series:              folded.Series,
		SkippedObservations: folded.Skipped,
		Metrics:             timeline.BuildViews(folded.Series, s.catalog),
	}, nil
}

// CohortOverview is the cohort-level header: simulation progress, whether an
// operation is in flight, and the retained result of the last advance.
type CohortOverview struct {
	Progress   *risksummary.CycleProgress `json:"progress,omitempty"`
	Advancing  bool                       `json:"advancing"`
	Resetting  bool                       `json:"resetting"`
	LastResult *models.AdvanceResult      `json:"last_result,omitempty"`
}

func (s *Service) CohortOverview(ctx context.Context) (*CohortOverview, error) {
	if _, err := s.controller.Refresh(ctx); err != nil {
		return nil, err
	}
	state := s.controller.State()

	overview := &CohortOverview{
		Advancing:  state.Advancing,
		Resetting:  state.Resetting,
		LastResult: state.LastResult,
	}
	if state.Metadata != nil {
		progress := risksummary.Progress(*state.Metadata)
		overview.Progress = &progress
	}
	return overview, nil
}

// PatientRow is one line of the cohort table: identity, headline labs and
// the derived alert flags.
type PatientRow struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Age         *int                  `json:"age,omitempty"`
	CKDStage    *int                  `json:"ckd_stage,omitempty"`
	EGFR        *float64              `json:"egfr,omitempty"`
	UACR        *float64              `json:"uacr,omitempty"`
	Indicators  indicators.Indicators `json:"indicators"`
	ActiveFlags []string              `json:"active_flags"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (s *Service) CohortPatients(ctx context.Context) ([]PatientRow, error) {
	records, err := s.backend.Patients(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]PatientRow, 0, len(records))
	for _, record := range records {
		derived := indicators.Derive(indicators.FromRecord(record))
		rows = append(rows, PatientRow{
			ID:          record.ID,
			Name:        record.Name,
			Age:         record.Age,
			CKDStage:    record.CKDStage,
			EGFR:        record.EGFR,
			UACR:        record.UACR,
			Indicators:  derived,
			ActiveFlags: derived.ActiveFlags(),
			UpdatedAt:   record.UpdatedAt,
		})
	}
	return rows, nil
}

// Analyze proxies one risk analysis and shapes the validated outcome for
// display. A failed analysis is still a renderable outcome, not an error;
// only transport and malformed-payload problems surface as errors.
type AnalysisView struct {
	PatientID        string               `json:"patient_id"`
	Summary          *risksummary.Summary `json:"summary,omitempty"`
	Message          string               `json:"message,omitempty"`
	Cached           bool                 `json:"cached"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
}

func (s *Service) Analyze(ctx context.Context, patientID string, opts models.AnalyzeOptions) (*AnalysisView, error) {
	metrics.IncAnalysisRequested()
	outcome, err := s.backend.Analyze(ctx, patientID, opts)
	if err != nil {
		return nil, err
	}

	view := &AnalysisView{
		PatientID:        outcome.PatientID,
		Message:          outcome.Message,
		Cached:           outcome.Cached,
		ProcessingTimeMs: outcome.ProcessingTimeMs,
	}
	if outcome.Assessment != nil {
		summary := risksummary.Summarize(*outcome.Assessment)
		view.Summary = &summary
	}
	return view, nil
}

// Operations lists the audit trail, most recent first. Without a configured
// trail the history is simply empty.
func (s *Service) Operations(ctx context.Context, limit int) ([]progression.Operation, error) {
	if s.audit == nil {
		return []progression.Operation{}, nil
	}
	return s.audit.Recent(ctx, limit)
}

// Activity returns the recent cohort events, newest first.
func (s *Service) Activity() []models.Event {
	if s.feed == nil {
		return []models.Event{}
	}
	return s.feed.Recent()
}

func (s *Service) currentCycle() int {
	state := s.controller.State()
	if state.Metadata != nil {
		return state.Metadata.CurrentCycle
	}
	return 0
}
