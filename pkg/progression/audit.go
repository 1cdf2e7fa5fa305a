package progression

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/renalview/monitor/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OperationAdvance = "advance"
	OperationReset   = "reset"

	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// AuditTrail is the append-only operator history of advance/reset round
// trips. It records what happened, never engine state: every displayed
// series, flag and summary stays recomputable from backend data alone.
type AuditTrail struct {
	db *gorm.DB
}

func NewAuditTrail(db *gorm.DB) *AuditTrail {
	return &AuditTrail{db: db}
}

type cycleOperationModel struct {
	ID                  uuid.UUID      `gorm:"primaryKey;column:id"`
	Operation           string         `gorm:"column:operation"`
	Status              string         `gorm:"column:status"`
	Error               string         `gorm:"column:error"`
	NewCycle            *int           `gorm:"column:new_cycle"`
	PatientsProcessed   *int           `gorm:"column:patients_processed"`
	TransitionsDetected *int           `gorm:"column:transitions_detected"`
	AlertsGenerated     *int           `gorm:"column:alerts_generated"`
	TreatmentChanges    *int           `gorm:"column:treatment_changes"`
	ProcessingTimeMs    *int64         `gorm:"column:processing_time_ms"`
	Result              datatypes.JSON `gorm:"column:result"`
	StartedAt           time.Time      `gorm:"column:started_at"`
	CompletedAt         time.Time      `gorm:"column:completed_at"`
}

func (cycleOperationModel) TableName() string { return "cycle_operations" }

// Operation is the display form of one audit row.
type Operation struct {
	ID          string                `json:"id"`
	Operation   string                `json:"operation"`
	Status      string                `json:"status"`
	Error       string                `json:"error,omitempty"`
	Result      *models.AdvanceResult `json:"result,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at"`
}

func (a *AuditTrail) AutoMigrate() error {
	return a.db.AutoMigrate(&cycleOperationModel{})
}

func (a *AuditTrail) RecordAdvance(ctx context.Context, result *models.AdvanceResult, opErr error, started, completed time.Time) error {
	row := &cycleOperationModel{
		ID:          uuid.New(),
		Operation:   OperationAdvance,
		Status:      StatusSucceeded,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if opErr != nil {
		row.Status = StatusFailed
		row.Error = opErr.Error()
	}
	if result != nil {
		row.NewCycle = &result.NewCycle
		row.PatientsProcessed = &result.PatientsProcessed
		row.TransitionsDetected = &result.TransitionsDetected
		row.AlertsGenerated = &result.AlertsGenerated
		row.TreatmentChanges = &result.TreatmentChanges
		row.ProcessingTimeMs = &result.ProcessingTimeMs
		if payload, err := json.Marshal(result); err == nil {
			row.Result = datatypes.JSON(payload)
		}
	}
	return a.db.WithContext(ctx).Create(row).Error
}

func (a *AuditTrail) RecordReset(ctx context.Context, opErr error, started, completed time.Time) error {
	row := &cycleOperationModel{
		ID:          uuid.New(),
		Operation:   OperationReset,
		Status:      StatusSucceeded,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if opErr != nil {
		row.Status = StatusFailed
		row.Error = opErr.Error()
	}
	return a.db.WithContext(ctx).Create(row).Error
}

// Recent lists operations most recent first.
func (a *AuditTrail) Recent(ctx context.Context, limit int) ([]Operation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []cycleOperationModel
	if err := a.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	operations := make([]Operation, 0, len(rows))
	for _, row := range rows {
		op := Operation{
			ID:          row.ID.String(),
			Operation:   row.Operation,
			Status:      row.Status,
			Error:       row.Error,
			StartedAt:   row.StartedAt,
			CompletedAt: row.CompletedAt,
		}
		if len(row.Result) > 0 {
			var result models.AdvanceResult
			if err := json.Unmarshal(row.Result, &result); err == nil {
				op.Result = &result
			}
		}
		operations = append(operations, op)
	}
	return operations, nil
}
