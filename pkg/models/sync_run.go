package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flaboy/aira-books/pkg/database"
	"github.com/flaboy/aira-books/pkg/errors"
	"gorm.io/gorm"
)

const (
	SyncRunStatusRunning = "Running"
	SyncRunStatusSuccess = "Success"
	SyncRunStatusFailure = "Failure"
)

// BatchErrorRecord 批量调用中单个元素的校验错误
type BatchErrorRecord struct {
	Endpoint  string `json:"endpoint"`
	Reference string `json:"reference"`
	Name      string `json:"name"`
	Errors    string `json:"errors"`
}

type ErrorDetails struct {
	Message        string             `json:"message,omitempty"`
	SourceLocation string             `json:"source_location,omitempty"`
	BatchErrors    []BatchErrorRecord `json:"batch_errors,omitempty"`
}

func (e ErrorDetails) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *ErrorDetails) Scan(value interface{}) error {
	if value == nil {
		*e = ErrorDetails{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported type for ErrorDetails: %T", value)
	}
}

type SyncRun struct {
	ID                 uint   `gorm:"primaryKey"`
	TeamID             uint   `gorm:"index"`
	Status             string `gorm:"size:20;index"`
	StartTime          time.Time
	EndTime            *time.Time
	TotalOrders        int
	SuccessfulInvoices int
	FailedInvoices     int
	ErrorDetails       ErrorDetails `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r *SyncRun) TableName() string {
	return "ar_sync_runs"
}

// StartRun creates the ledger row for a new invocation. A team with a run
// still in Running state is refused rather than started twice: the Xero
// lookup-then-create window is not isolated against concurrent runs.
func StartRun(db *gorm.DB, teamID uint) (*SyncRun, error) {
	var count int64
	err := db.Model(&SyncRun{}).
		Where("team_id = ? AND status = ?", teamID, SyncRunStatusRunning).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.ErrSyncAlreadyRunning
	}

	run := &SyncRun{
		TeamID:    teamID,
		Status:    SyncRunStatusRunning,
		StartTime: time.Now(),
	}
	if err := db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// AppendBatchErrors merges new records into error_details.batch_errors,
// never replacing entries accumulated earlier in the run.
func (r *SyncRun) AppendBatchErrors(db *gorm.DB, records []BatchErrorRecord) error {
	if len(records) == 0 {
		return nil
	}
	r.ErrorDetails.BatchErrors = append(r.ErrorDetails.BatchErrors, records...)
	return db.Model(r).Update("error_details", r.ErrorDetails).Error
}

func (r *SyncRun) SetTotalOrders(db *gorm.DB, total int) error {
	r.TotalOrders = total
	return db.Model(r).Update("total_orders", total).Error
}

// FinishSuccess moves the run to its terminal Success state.
func (r *SyncRun) FinishSuccess(db *gorm.DB, successful, failed int) error {
	now := time.Now()
	r.Status = SyncRunStatusSuccess
	r.EndTime = &now
	r.SuccessfulInvoices = successful
	r.FailedInvoices = failed
	return db.Model(r).Updates(map[string]interface{}{
		"status":              r.Status,
		"end_time":            r.EndTime,
		"successful_invoices": successful,
		"failed_invoices":     failed,
	}).Error
}

// FinishFailure moves the run to its terminal Failure state, recording the
// failing error and step while preserving batch errors gathered so far.
func (r *SyncRun) FinishFailure(db *gorm.DB, cause error, sourceLocation string, successful, failed int) error {
	now := time.Now()
	r.Status = SyncRunStatusFailure
	r.EndTime = &now
	r.SuccessfulInvoices = successful
	r.FailedInvoices = failed
	r.ErrorDetails.Message = cause.Error()
	r.ErrorDetails.SourceLocation = sourceLocation
	return db.Model(r).Updates(map[string]interface{}{
		"status":              r.Status,
		"end_time":            r.EndTime,
		"successful_invoices": successful,
		"failed_invoices":     failed,
		"error_details":       r.ErrorDetails,
	}).Error
}

func init() {
	database.RegisterAutoMigrateModels(&SyncRun{})
}
