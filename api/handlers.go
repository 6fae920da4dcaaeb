package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/dateutil"
	"github.com/drillhub/drillview/ingest"
	"github.com/drillhub/drillview/types"
)

const (
	defaultLimit = 500
	maxLimit     = 10000
)

// handleGetDrillingData serves the split-schema listing: count check, date
// range discovery, filtered page, and matching statistics composed into one
// payload.
func (s *server) handleGetDrillingData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit := parsePositiveInt(query.Get("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := parsePositiveInt(query.Get("offset"), 0)

	total, err := s.store.Count(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to count records")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error fetching drilling data", err.Error())
		return
	}

	// Zero rows is not an error: the caller must be able to tell "system
	// has no data" apart from "nothing matched my filter".
	if total == 0 {
		s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"data":      []types.DrillingRecord{},
			"stats":     nil,
			"dateRange": nil,
			"pagination": types.Pagination{
				Limit:   limit,
				Offset:  offset,
				HasMore: false,
				Total:   0,
			},
			"message": "Data not exist",
		})
		return
	}

	// Always discovered on the full table so the UI can bound its date
	// picker even while a filter is active.
	dateRange, err := s.store.AvailableDateRange(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to query date range")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error fetching drilling data", err.Error())
		return
	}

	filter := buildFilter(query.Get("startDate"), query.Get("startTime"),
		query.Get("endDate"), query.Get("endTime"), limit, offset)

	records, err := s.store.ListRecords(ctx, filter)
	if err != nil {
		s.log.WithError(err).Error("Failed to list records")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error fetching drilling data", err.Error())
		return
	}

	stats, err := s.store.RecordStats(ctx, filter)
	if err != nil {
		s.log.WithError(err).Error("Failed to query statistics")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error fetching drilling data", err.Error())
		return
	}

	if records == nil {
		records = []types.DrillingRecord{}
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      records,
		"stats":     stats,
		"dateRange": dateRange,
		"pagination": types.Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: len(records) == limit,
			Total:   total,
		},
	})
}

// buildFilter converts caller-supplied ISO dates to storage format. A failed
// conversion or a missing bound drops the whole date filter, falling back to
// the unfiltered shape. Times only apply when both are present alongside a
// complete date range.
func buildFilter(startDate, startTime, endDate, endTime string, limit, offset int) types.RecordFilter {
	filter := types.RecordFilter{Limit: limit, Offset: offset}

	if startDate == "" || endDate == "" {
		return filter
	}

	storageStart, errStart := dateutil.ToStorageDate(startDate)
	storageEnd, errEnd := dateutil.ToStorageDate(endDate)
	if errStart != nil || errEnd != nil {
		return filter
	}

	filter.StartDate = storageStart
	filter.EndDate = storageEnd

	if startTime != "" && endTime != "" {
		filter.StartTime = dateutil.NormalizeTime(startTime)
		filter.EndTime = dateutil.NormalizeTime(endTime)
	}

	return filter
}

// handleGetWitsData serves the combined-schema playback variant: no date
// range discovery and no filters, just the most recent N samples. Retrieval
// is newest-first; the configured playback order decides whether the payload
// is re-reversed to run oldest to newest.
func (s *server) handleGetWitsData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	records, err := s.store.ListRecentWits(ctx, limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to list wits records")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error fetching drilling data", err.Error())
		return
	}

	if s.cfg.PlaybackOrder == config.PlaybackOldestFirst {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}

	if records == nil {
		records = []types.WitsRecord{}
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    records,
		"pagination": types.Pagination{
			Limit:   limit,
			HasMore: len(records) == limit,
			Total:   int64(len(records)),
		},
	})
}

// handleUploadCSV accepts a multipart upload and runs the configured
// ingestion profile under the request-wide duration ceiling. Rows already
// committed stay committed if the ceiling cuts the run short.
func (s *server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.maxIngest)
	defer cancel()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "No file uploaded", "")
		return
	}
	defer file.Close()

	summary, err := s.ingestor.Ingest(ctx, file, header.Filename, header.Size)
	if err != nil {
		var validationErr *ingest.ValidationError
		if errors.As(err, &validationErr) {
			s.writeErrorResponse(w, http.StatusBadRequest, validationErr.Message, "")
			return
		}
		s.log.WithError(err).Error("CSV ingestion failed")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}

	ingestedRowsTotal.WithLabelValues("inserted").Add(float64(summary.Inserted))
	ingestedRowsTotal.WithLabelValues("skipped").Add(float64(summary.Skipped))

	message := fmt.Sprintf("Successfully inserted %d rows", summary.Inserted)
	if summary.Skipped > 0 {
		message += fmt.Sprintf(", skipped %d rows", summary.Skipped)
	}

	resp := map[string]interface{}{
		"success":  true,
		"inserted": summary.Inserted,
		"skipped":  summary.Skipped,
		"total":    summary.Total,
		"runId":    summary.RunID,
		"message":  message,
	}
	if len(summary.Errors) > 0 {
		resp["errors"] = summary.Errors
	}

	s.writeJSONResponse(w, http.StatusOK, resp)
}

// parsePositiveInt parses a query parameter, falling back to def for
// anything missing, malformed, or negative.
func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return def
	}
	if parsed == 0 && def != 0 {
		return def
	}
	return parsed
}
