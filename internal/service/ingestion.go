package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Harshthakur24/Env-Dashboard/internal/ingest"
	"github.com/Harshthakur24/Env-Dashboard/internal/models"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"

	// DefaultBatchSize bounds each upsert transaction. Batch boundaries are a
	// throughput concern only and never change the merge outcome.
	DefaultBatchSize = 500
)

// ErrNoValidRows is returned when parsing produced zero records; reconciliation
// must not run and the caller reports the parse errors instead.
var ErrNoValidRows = errors.New("no valid rows found to ingest")

// VisitStore is the upsert-by-key contract the engine consumes from storage.
type VisitStore interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	UpsertVisit(ctx context.Context, tx pgx.Tx, rec models.VisitRecord, uploadID *string) (bool, error)
	CreateUpload(ctx context.Context, fileName string) (string, error)
	FinishUpload(ctx context.Context, id string, status string, created, updated, skipped int, rowErrors []byte) error
}

type IngestionService struct {
	Store     VisitStore
	Parser    *ingest.Parser
	BatchSize int
	Logger    zerolog.Logger
}

// Ingest runs the whole pipeline for one uploaded workbook: parse, record a
// history entry, reconcile into storage, and report counts. Batches already
// committed before a storage failure stay committed.
func (s *IngestionService) Ingest(ctx context.Context, data []byte, fileName string) (models.IngestOutcome, error) {
	parsed := s.Parser.Parse(data)

	outcome := models.IngestOutcome{
		Errors:    parsed.Errors,
		Skipped:   len(parsed.Errors),
		HeaderMap: headerMapStrings(parsed.HeaderMap),
	}
	if outcome.Errors == nil {
		outcome.Errors = []models.RowError{}
	}
	if len(parsed.Rows) == 0 {
		return outcome, ErrNoValidRows
	}

	uploadID, err := s.Store.CreateUpload(ctx, fileName)
	if err != nil {
		return outcome, fmt.Errorf("create upload history: %w", err)
	}
	outcome.UploadID = uploadID

	created, updated, mergeErr := s.Reconcile(ctx, parsed.Rows, &uploadID)
	outcome.Created = created
	outcome.Updated = updated

	status := StatusSuccess
	if mergeErr != nil {
		status = StatusFailed
	}
	errJSON, _ := json.Marshal(outcome.Errors)
	if err := s.Store.FinishUpload(ctx, uploadID, status, created, updated, outcome.Skipped, errJSON); err != nil {
		s.Logger.Error().Err(err).Str("upload_id", uploadID).Msg("failed to finish upload history")
	}

	if mergeErr != nil {
		return outcome, mergeErr
	}
	s.Logger.Info().
		Str("upload_id", uploadID).
		Int("created", created).
		Int("updated", updated).
		Int("skipped", outcome.Skipped).
		Msg("workbook ingested")
	return outcome, nil
}

// Reconcile merges records in original order, chunked into fixed-size batches
// with one transaction per batch. Counts only reflect committed batches; a
// batch failure aborts the remaining batches without rolling back earlier ones.
func (s *IngestionService) Reconcile(ctx context.Context, rows []models.VisitRecord, uploadID *string) (int, int, error) {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var created, updated int
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		var batchCreated, batchUpdated int
		err := s.Store.WithTx(ctx, func(tx pgx.Tx) error {
			for _, rec := range rows[start:end] {
				wasInsert, err := s.Store.UpsertVisit(ctx, tx, rec, uploadID)
				if err != nil {
					return err
				}
				if wasInsert {
					batchCreated++
				} else {
					batchUpdated++
				}
			}
			return nil
		})
		if err != nil {
			return created, updated, fmt.Errorf("upsert batch starting at row %d: %w", start+1, err)
		}
		created += batchCreated
		updated += batchUpdated
	}
	return created, updated, nil
}

func headerMapStrings(m ingest.HeaderMap) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for field, literal := range m {
		out[string(field)] = literal
	}
	return out
}
