package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harshthakur24/Env-Dashboard/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpsertVisit merges one record by its (location, visit_date) natural key.
// Returns true when the key did not pre-exist. xmax = 0 only holds for rows
// created by the current transaction, which is what distinguishes an insert
// from an update of an existing row.
func (s *Store) UpsertVisit(ctx context.Context, tx pgx.Tx, rec models.VisitRecord, uploadID *string) (bool, error) {
	var inserted bool
	err := tx.QueryRow(ctx, `
		INSERT INTO ingestion_rows (location, visit_date, composters, wet_waste_kg, brown_waste_kg, leachate_l, harvest_kg, upload_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (location, visit_date) DO UPDATE SET
			composters = EXCLUDED.composters,
			wet_waste_kg = EXCLUDED.wet_waste_kg,
			brown_waste_kg = EXCLUDED.brown_waste_kg,
			leachate_l = EXCLUDED.leachate_l,
			harvest_kg = EXCLUDED.harvest_kg,
			upload_id = EXCLUDED.upload_id,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`, rec.Location, rec.VisitDate, rec.Composters, rec.WetWasteKg, rec.BrownWasteKg, rec.LeachateL, rec.HarvestKg, uploadID).Scan(&inserted)
	return inserted, err
}

func (s *Store) ListVisits(ctx context.Context, location string, from, to *time.Time) ([]models.VisitRecord, error) {
	query := `SELECT id, location, visit_date, composters, wet_waste_kg, brown_waste_kg, leachate_l, harvest_kg, upload_id, created_at, updated_at FROM ingestion_rows`
	var args []any
	var wheres []string
	if location != "" {
		args = append(args, location)
		wheres = append(wheres, fmt.Sprintf("location = $%d", len(args)))
	}
	if from != nil {
		args = append(args, *from)
		wheres = append(wheres, fmt.Sprintf("visit_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		wheres = append(wheres, fmt.Sprintf("visit_date <= $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY visit_date ASC, location ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVisits(rows)
}

// VisitPatch carries the optional fields of a row edit; nil means untouched.
type VisitPatch struct {
	Location     *string
	VisitDate    *time.Time
	Composters   *int
	WetWasteKg   *float64
	BrownWasteKg *float64
	LeachateL    *float64
	HarvestKg    *float64
}

func (p VisitPatch) Empty() bool {
	return p.Location == nil && p.VisitDate == nil && p.Composters == nil &&
		p.WetWasteKg == nil && p.BrownWasteKg == nil && p.LeachateL == nil && p.HarvestKg == nil
}

func (s *Store) UpdateVisit(ctx context.Context, id string, patch VisitPatch) (models.VisitRecord, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.VisitDate != nil {
		add("visit_date", *patch.VisitDate)
	}
	if patch.Composters != nil {
		add("composters", *patch.Composters)
	}
	if patch.WetWasteKg != nil {
		add("wet_waste_kg", *patch.WetWasteKg)
	}
	if patch.BrownWasteKg != nil {
		add("brown_waste_kg", *patch.BrownWasteKg)
	}
	if patch.LeachateL != nil {
		add("leachate_l", *patch.LeachateL)
	}
	if patch.HarvestKg != nil {
		add("harvest_kg", *patch.HarvestKg)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE ingestion_rows SET %s WHERE id = $%d
		RETURNING id, location, visit_date, composters, wet_waste_kg, brown_waste_kg, leachate_l, harvest_kg, upload_id, created_at, updated_at
	`, strings.Join(sets, ", "), len(args))

	var rec models.VisitRecord
	err := s.Pool.QueryRow(ctx, query, args...).Scan(
		&rec.ID, &rec.Location, &rec.VisitDate, &rec.Composters, &rec.WetWasteKg,
		&rec.BrownWasteKg, &rec.LeachateL, &rec.HarvestKg, &rec.UploadID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *Store) CreateUpload(ctx context.Context, fileName string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO upload_history (file_name, status, started_at) VALUES ($1, 'RUNNING', NOW()) RETURNING id`, fileName).Scan(&id)
	return id, err
}

func (s *Store) FinishUpload(ctx context.Context, id string, status string, created, updated, skipped int, rowErrors []byte) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE upload_history
		SET status = $1, created_count = $2, updated_count = $3, skipped_count = $4, errors = $5, finished_at = NOW()
		WHERE id = $6
	`, status, created, updated, skipped, rowErrors, id)
	return err
}

func (s *Store) ListUploads(ctx context.Context) ([]models.Upload, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, file_name, note, status, created_count, updated_count, skipped_count, errors, started_at, finished_at
		FROM upload_history ORDER BY started_at DESC LIMIT 100
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.FileName, &u.Note, &u.Status, &u.CreatedCount, &u.UpdatedCount, &u.SkippedCount, &u.Errors, &u.StartedAt, &u.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUpload edits the note and/or file name of a history record. noteSet
// distinguishes "clear the note" from "leave it alone".
func (s *Store) UpdateUpload(ctx context.Context, id string, note *string, noteSet bool, fileName *string) (models.Upload, error) {
	var sets []string
	var args []any
	if noteSet {
		args = append(args, note)
		sets = append(sets, fmt.Sprintf("note = $%d", len(args)))
	}
	if fileName != nil {
		args = append(args, strings.TrimSpace(*fileName))
		sets = append(sets, fmt.Sprintf("file_name = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE upload_history SET %s WHERE id = $%d
		RETURNING id, file_name, note, status, created_count, updated_count, skipped_count, errors, started_at, finished_at
	`, strings.Join(sets, ", "), len(args))

	var u models.Upload
	err := s.Pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.FileName, &u.Note, &u.Status, &u.CreatedCount, &u.UpdatedCount, &u.SkippedCount, &u.Errors, &u.StartedAt, &u.FinishedAt,
	)
	return u, err
}

func (s *Store) DeleteUpload(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM upload_history WHERE id = $1`, id)
	return err
}

func (s *Store) ListUploadRows(ctx context.Context, uploadID string) ([]models.VisitRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, location, visit_date, composters, wet_waste_kg, brown_waste_kg, leachate_l, harvest_kg, upload_id, created_at, updated_at
		FROM ingestion_rows WHERE upload_id = $1 ORDER BY visit_date ASC, location ASC
	`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVisits(rows)
}

func (s *Store) ListSiteLocations(ctx context.Context) ([]models.SiteLocation, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT r.location, l.lat, l.lon, COALESCE(l.display_name, ''), COALESCE(l.confidence, 0), l.geocoded_at
		FROM (SELECT DISTINCT location FROM ingestion_rows) r
		LEFT JOIN site_locations l ON l.location = r.location
		ORDER BY r.location ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SiteLocation
	for rows.Next() {
		var loc models.SiteLocation
		if err := rows.Scan(&loc.Location, &loc.Lat, &loc.Lon, &loc.DisplayName, &loc.Confidence, &loc.GeocodedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *Store) UpsertSiteCoords(ctx context.Context, location string, lat, lon float64, displayName string, confidence float64) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO site_locations (location, lat, lon, display_name, confidence, geocoded_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (location) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			display_name = EXCLUDED.display_name,
			confidence = EXCLUDED.confidence,
			geocoded_at = EXCLUDED.geocoded_at
	`, location, lat, lon, displayName, confidence)
	return err
}

func scanVisits(rows pgx.Rows) ([]models.VisitRecord, error) {
	var out []models.VisitRecord
	for rows.Next() {
		var rec models.VisitRecord
		if err := rows.Scan(&rec.ID, &rec.Location, &rec.VisitDate, &rec.Composters, &rec.WetWasteKg, &rec.BrownWasteKg, &rec.LeachateL, &rec.HarvestKg, &rec.UploadID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
