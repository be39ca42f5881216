package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"campusrooms/internal/domain"
	"campusrooms/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExportWorker writes xlsx reservation reports off the request path.
// Tasks covering the same date range are coalesced; failed writes are
// retried with exponential backoff.
type ExportWorker struct {
	store       domain.ReservationStore
	exportPath  string
	retryPolicy RetryPolicy
	queue       chan models.ExportTask
	logger      *zerolog.Logger
}

func NewExportWorker(store domain.ReservationStore, exportPath string, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		store:       store,
		exportPath:  exportPath,
		retryPolicy: retry,
		queue:       make(chan models.ExportTask, models.ExportQueueSize),
		logger:      logger,
	}
}

// EnqueueExport schedules a report covering [start, end]. Never blocks;
// a full queue drops the task since a later one will cover the range.
func (w *ExportWorker) EnqueueExport(ctx context.Context, start, end time.Time) error {
	if end.Before(start) {
		return errors.New("export range end before start")
	}

	task := models.ExportTask{StartDate: start, EndDate: end, CreatedAt: time.Now()}
	select {
	case w.queue <- task:
		return nil
	default:
		w.logger.Warn().Msg("export queue full, dropping task")
		return nil
	}
}

// Start consumes the queue until ctx is cancelled.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Str("path", w.exportPath).Msg("export worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("export worker stopped")
			return
		case task := <-w.queue:
			w.process(ctx, task)
		}
	}
}

func (w *ExportWorker) process(ctx context.Context, task models.ExportTask) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		path, err := w.WriteReport(ctx, task.StartDate, task.EndDate)
		if err == nil {
			w.logger.Info().Str("file_path", path).Msg("export written")
			return
		}
		lastErr = err

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("export failed, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	w.logger.Error().Err(lastErr).Msg("export abandoned after retries")
}

// WriteReport renders every reservation intersecting [start, end] into
// an xlsx file and returns its path.
func (w *ExportWorker) WriteReport(ctx context.Context, start, end time.Time) (string, error) {
	if err := os.MkdirAll(w.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	reservations, err := w.store.GetReservationsByDateRange(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("error getting reservations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		start.Format("2006-01-02"), end.Format("2006-01-02")))

	headers := []string{"ID", "Room", "Requester", "Start", "End", "Status", "Purpose", "Reason"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for row, res := range reservations {
		values := []any{
			res.ID,
			res.RoomID,
			res.RequesterID,
			res.StartTime.Format(time.RFC3339),
			res.EndTime.Format(time.RFC3339),
			res.Status,
			res.Purpose,
			res.Reason,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "H", 22)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetName, "A2", "H2", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	filePath := filepath.Join(w.exportPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	return filePath, nil
}
