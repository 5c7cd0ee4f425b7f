package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Harshthakur24/Env-Dashboard/internal/db"
	"github.com/Harshthakur24/Env-Dashboard/internal/geocode"
	"github.com/Harshthakur24/Env-Dashboard/internal/models"
	"github.com/Harshthakur24/Env-Dashboard/internal/service"
)

type Handler struct {
	Store          *db.Store
	Ingestion      *service.IngestionService
	Geocoder       geocode.Geocoder
	Validator      *validator.Validate
	Logger         zerolog.Logger
	AdminKey       string
	CountryDefault string
	MaxUploadBytes int64
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Ingest a workbook of field-visit data
// @Description Upload an Excel export; rows are validated and merged by (location, visit date)
// @Tags ingestion
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "visits.xlsx"
// @Success 200 {object} models.IngestOutcome
// @Failure 400 {object} map[string]any
// @Router /api/ingestion [post]
func (h *Handler) IngestWorkbook(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing file field named 'file'.", nil)
		return
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "File too large (max 10MB).", nil)
		return
	}
	if !validateExt(fh.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Only Excel files (.xlsx/.xls) are supported.", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to open uploaded file.", err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read uploaded file.", err.Error())
		return
	}

	outcome, err := h.Ingestion.Ingest(c.Request.Context(), data, fh.Filename)
	if err != nil {
		if errors.Is(err, service.ErrNoValidRows) {
			c.JSON(http.StatusBadRequest, gin.H{
				"ok":         false,
				"message":    "No valid rows found to ingest.",
				"errors":     outcome.Errors,
				"header_map": outcome.HeaderMap,
			})
			return
		}
		h.Logger.Error().Err(err).Str("file", fh.Filename).Msg("ingestion failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Ingestion failed", gin.H{
			"error":   err.Error(),
			"created": outcome.Created,
			"updated": outcome.Updated,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"created":   outcome.Created,
		"updated":   outcome.Updated,
		"total":     outcome.Created + outcome.Updated,
		"skipped":   outcome.Skipped,
		"errors":    outcome.Errors,
		"upload_id": outcome.UploadID,
	})
}

// @Summary List ingested rows
// @Tags ingestion
// @Produce json
// @Param location query string false "Exact location filter"
// @Param from query string false "Earliest visit date (YYYY-MM-DD)"
// @Param to query string false "Latest visit date (YYYY-MM-DD)"
// @Success 200 {object} map[string]any
// @Router /api/ingestion [get]
func (h *Handler) RowsList(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	from, ok := parseDateQuery(c.Query("from"))
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid 'from' date", nil)
		return
	}
	to, ok := parseDateQuery(c.Query("to"))
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid 'to' date", nil)
		return
	}

	rows, err := h.Store.ListVisits(c.Request.Context(), location, from, to)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list rows", err.Error())
		return
	}
	if rows == nil {
		rows = []models.VisitRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

type RowUpdateRequest struct {
	Location     *string  `json:"location"`
	VisitDate    *string  `json:"visit_date"`
	Composters   *float64 `json:"composters" validate:"omitempty,gte=0"`
	WetWasteKg   *float64 `json:"wet_waste_kg" validate:"omitempty,gte=0"`
	BrownWasteKg *float64 `json:"brown_waste_kg" validate:"omitempty,gte=0"`
	LeachateL    *float64 `json:"leachate_l" validate:"omitempty,gte=0"`
	HarvestKg    *float64 `json:"harvest_kg" validate:"omitempty,gte=0"`
}

// @Summary Edit one ingested row
// @Tags ingestion
// @Accept json
// @Produce json
// @Param id path string true "Row ID"
// @Success 200 {object} map[string]any
// @Router /api/ingestion/{id} [patch]
func (h *Handler) RowUpdate(c *gin.Context) {
	id := c.Param("id")
	var req RowUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body.", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	patch := db.VisitPatch{
		WetWasteKg:   req.WetWasteKg,
		BrownWasteKg: req.BrownWasteKg,
		LeachateL:    req.LeachateL,
		HarvestKg:    req.HarvestKg,
	}
	if req.Location != nil {
		loc := strings.TrimSpace(*req.Location)
		if loc == "" {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Location cannot be empty.", nil)
			return
		}
		patch.Location = &loc
	}
	if req.VisitDate != nil {
		d, ok := parseDateQuery(*req.VisitDate)
		if !ok || d == nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid visit_date.", nil)
			return
		}
		patch.VisitDate = d
	}
	if req.Composters != nil {
		if *req.Composters != math.Trunc(*req.Composters) {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "composters must be a whole number", nil)
			return
		}
		n := int(*req.Composters)
		patch.Composters = &n
	}
	if patch.Empty() {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Nothing to update.", nil)
		return
	}

	rec, err := h.Store.UpdateVisit(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Row not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update row", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "row": rec})
}

// @Summary List upload history
// @Tags history
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/history [get]
func (h *Handler) HistoryList(c *gin.Context) {
	items, err := h.Store.ListUploads(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load upload history.", err.Error())
		return
	}
	if items == nil {
		items = []models.Upload{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

type HistoryUpdateRequest struct {
	Note     json.RawMessage `json:"note"`
	FileName *string         `json:"file_name"`
}

func (h *Handler) HistoryUpdate(c *gin.Context) {
	id := c.Param("id")
	var req HistoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body.", err.Error())
		return
	}

	// The note field is tri-state: absent leaves it alone, null clears it.
	var note *string
	noteSet := len(req.Note) > 0
	if noteSet && string(req.Note) != "null" {
		var v string
		if err := json.Unmarshal(req.Note, &v); err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "note must be a string or null", nil)
			return
		}
		note = &v
	}
	if !noteSet && req.FileName == nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Nothing to update.", nil)
		return
	}

	item, err := h.Store.UpdateUpload(c.Request.Context(), id, note, noteSet, req.FileName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "History record not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update history record.", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item})
}

func (h *Handler) HistoryDelete(c *gin.Context) {
	if err := h.Store.DeleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete history record.", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) HistoryRows(c *gin.Context) {
	rows, err := h.Store.ListUploadRows(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load upload rows.", err.Error())
		return
	}
	if rows == nil {
		rows = []models.VisitRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// @Summary Threshold alerts over the filtered rows
// @Tags alerts
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/alerts [get]
func (h *Handler) Alerts(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	from, ok := parseDateQuery(c.Query("from"))
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid 'from' date", nil)
		return
	}
	to, ok := parseDateQuery(c.Query("to"))
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid 'to' date", nil)
		return
	}

	rows, err := h.Store.ListVisits(c.Request.Context(), location, from, to)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load rows", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "alerts": service.GenerateAlerts(rows, time.Now().UTC())})
}

func (h *Handler) LocationsList(c *gin.Context) {
	items, err := h.Store.ListSiteLocations(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list locations", err.Error())
		return
	}
	if items == nil {
		items = []models.SiteLocation{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// @Summary Geocode site locations missing coordinates
// @Tags locations
// @Produce json
// @Param force query bool false "Re-geocode sites that already have coordinates"
// @Success 200 {object} map[string]any
// @Router /api/locations/regeocode [post]
func (h *Handler) RegeocodeLocations(c *gin.Context) {
	force := c.Query("force") == "1" || strings.EqualFold(c.Query("force"), "true")

	sites, err := h.Store.ListSiteLocations(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list locations", err.Error())
		return
	}

	var geocoded, skipped, failed int
	for _, site := range sites {
		if !geocode.ShouldGeocode(site, force) {
			skipped++
			continue
		}
		query := geocode.BuildGeocodeQuery(site.Location, h.CountryDefault)
		lat, lon, displayName, confidence, err := h.Geocoder.Geocode(c.Request.Context(), query)
		if err != nil {
			failed++
			h.Logger.Warn().Err(err).Str("location", site.Location).Msg("geocode failed")
			continue
		}
		if err := h.Store.UpsertSiteCoords(c.Request.Context(), site.Location, lat, lon, displayName, confidence); err != nil {
			failed++
			h.Logger.Error().Err(err).Str("location", site.Location).Msg("failed to save coordinates")
			continue
		}
		geocoded++
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"geocoded": geocoded,
		"skipped":  skipped,
		"failed":   failed,
	})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xls"
}

// parseDateQuery accepts YYYY-MM-DD or RFC3339; empty means no filter.
func parseDateQuery(v string) (*time.Time, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		t = t.UTC()
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, true
	}
	return nil, false
}
