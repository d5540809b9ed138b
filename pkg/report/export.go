package report

import (
	"fmt"
	"io"
	"time"

	"github.com/flaboy/aira-books/pkg/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	runsSheet   = "Sync Runs"
	errorsSheet = "Batch Errors"
	logsSheet   = "Run Logs"

	timestampLayout = "2006-01-02 15:04:05"
)

var runHeaders = []string{
	"Run ID", "Status", "Started", "Finished", "Duration",
	"Total Orders", "Successful Invoices", "Failed Invoices", "Error",
}

var errorHeaders = []string{
	"Run ID", "Endpoint", "Reference", "Name", "Errors",
}

var logHeaders = []string{
	"Run ID", "Time", "Level", "Message", "Context",
}

// Export writes a team's sync run history as an xlsx workbook: run
// summaries, per-element batch errors and the persisted run logs, newest
// run first.
func Export(db *gorm.DB, teamID uint, w io.Writer) error {
	var runs []models.SyncRun
	err := db.Where("team_id = ?", teamID).
		Order("start_time DESC").
		Find(&runs).Error
	if err != nil {
		return err
	}

	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", runsSheet)
	for _, sheet := range []string{errorsSheet, logsSheet} {
		if _, err := file.NewSheet(sheet); err != nil {
			return err
		}
	}

	if err := writeRow(file, runsSheet, 1, toCells(runHeaders)); err != nil {
		return err
	}
	if err := writeRow(file, errorsSheet, 1, toCells(errorHeaders)); err != nil {
		return err
	}
	if err := writeRow(file, logsSheet, 1, toCells(logHeaders)); err != nil {
		return err
	}

	errorRow := 2
	for i, run := range runs {
		cells := []interface{}{
			run.ID,
			run.Status,
			run.StartTime.Format(timestampLayout),
			formatEndTime(run.EndTime),
			formatDuration(run.StartTime, run.EndTime),
			run.TotalOrders,
			run.SuccessfulInvoices,
			run.FailedInvoices,
			run.ErrorDetails.Message,
		}
		if err := writeRow(file, runsSheet, i+2, cells); err != nil {
			return err
		}

		for _, record := range run.ErrorDetails.BatchErrors {
			cells := []interface{}{
				run.ID, record.Endpoint, record.Reference, record.Name, record.Errors,
			}
			if err := writeRow(file, errorsSheet, errorRow, cells); err != nil {
				return err
			}
			errorRow++
		}
	}

	if err := writeLogs(file, db, runs); err != nil {
		return err
	}

	return file.Write(w)
}

func writeLogs(file *excelize.File, db *gorm.DB, runs []models.SyncRun) error {
	if len(runs) == 0 {
		return nil
	}
	runIDs := make([]uint, 0, len(runs))
	for _, run := range runs {
		runIDs = append(runIDs, run.ID)
	}

	var logs []models.SyncRunLog
	err := db.Where("sync_run_id IN ?", runIDs).
		Order("sync_run_id DESC, id ASC").
		Find(&logs).Error
	if err != nil {
		return err
	}

	for i, entry := range logs {
		cells := []interface{}{
			entry.SyncRunID,
			entry.CreatedAt.Format(timestampLayout),
			entry.Level,
			entry.Message,
			string(entry.Context),
		}
		if err := writeRow(file, logsSheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(file *excelize.File, sheet string, row int, cells []interface{}) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func toCells(headers []string) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func formatEndTime(end *time.Time) string {
	if end == nil {
		return ""
	}
	return end.Format(timestampLayout)
}

func formatDuration(start time.Time, end *time.Time) string {
	if end == nil {
		return ""
	}
	return fmt.Sprintf("%.1fs", end.Sub(start).Seconds())
}
