// Package ingest converts uploaded CSV exports into persisted drilling
// records. Two profiles cover the two vendor dialects: WITS exports with a
// combined timestamp column (tolerant append, per-row inserts), and
// surface-sensor exports with split date/time columns (strict header
// contract, full reload, multi-row batches).
package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/dateutil"
	"github.com/drillhub/drillview/storage"
	"github.com/drillhub/drillview/types"
)

// ValidationError is a client input error: the upload is rejected before any
// rows are written and the message is safe to return verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	witsLogBatchSize   = 100
	reloadBatchSize    = 1000
	maxReportedErrors  = 5
	sentinelNoReading  = "-9999"
	sentinelNoReadingF = -9999
)

// isoDatePrefix accepts combined timestamps whose index value leads with an
// ISO date, e.g. "2021-08-02 13:45:00".
var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Ingestor parses uploaded files and writes rows through the storage
// capability, according to the configured profile.
type Ingestor struct {
	store storage.Store
	cfg   config.IngestConfig
	log   logrus.FieldLogger
}

// New creates an Ingestor.
func New(store storage.Store, cfg config.IngestConfig, log logrus.FieldLogger) *Ingestor {
	return &Ingestor{
		store: store,
		cfg:   cfg,
		log:   log.WithField("component", "ingest"),
	}
}

// Ingest validates the upload and runs the configured profile. Row-level
// problems never abort the run; validation problems abort it before any row
// is written.
func (in *Ingestor) Ingest(ctx context.Context, r io.Reader, filename string, size int64) (*types.IngestSummary, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, &ValidationError{Message: "Only .csv files are accepted"}
	}
	if size > in.cfg.MaxFileSize {
		return nil, &ValidationError{Message: fmt.Sprintf("File exceeds maximum size of %d MB", in.cfg.MaxFileSize/(1024*1024))}
	}

	runID := uuid.New().String()
	log := in.log.WithFields(logrus.Fields{
		"run_id":   runID,
		"filename": filename,
		"profile":  in.cfg.Profile,
	})
	log.Info("Starting CSV ingestion")

	var summary *types.IngestSummary
	var err error
	switch in.cfg.Profile {
	case config.ProfileWitsAppend:
		summary, err = in.ingestWits(ctx, r, runID, log)
	case config.ProfileSurfaceReload:
		summary, err = in.ingestSurface(ctx, r, runID, log)
	default:
		return nil, fmt.Errorf("unknown ingest profile: %q", in.cfg.Profile)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"inserted": summary.Inserted,
		"skipped":  summary.Skipped,
		"total":    summary.Total,
	}).Info("CSV ingestion finished")

	return summary, nil
}

// ingestWits handles the WITS dialect: vendor metadata precedes the header
// row, the index column is a combined timestamp, and rows append to the
// existing table one insert at a time so a bad row only costs itself.
func (in *Ingestor) ingestWits(ctx context.Context, r io.Reader, runID string, log logrus.FieldLogger) (*types.IngestSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	headerIndex := findHeaderLine(lines)
	if headerIndex < 0 {
		return nil, &ValidationError{
			Message: "Could not find DATE column header. Please ensure your CSV has a header row starting with DATE.",
		}
	}

	reader := csv.NewReader(bufio.NewReader(strings.NewReader(strings.Join(lines[headerIndex:], "\n"))))
	reader.Comma = detectDelimiter(lines[headerIndex])
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse header row: %w", err)
	}
	for i, name := range header {
		header[i] = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(name, "\uFEFF", "")))
	}

	columnIndex := make(map[string]int, len(header))
	for i, name := range header {
		columnIndex[name] = i
	}
	dateIdx, ok := columnIndex["DATE"]
	if !ok {
		return nil, &ValidationError{
			Message: "Could not find DATE column header. Please ensure your CSV has a header row starting with DATE.",
		}
	}

	summary := &types.IngestSummary{RunID: runID}
	rowNum := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line in the body; costs one row, not the run.
			summary.Skipped++
			continue
		}

		if dateIdx >= len(record) {
			continue
		}
		date := strings.TrimSpace(record[dateIdx])
		if !isDataRow(date) {
			continue
		}

		summary.Total++
		rec := decodeWitsRow(record, columnIndex, date)

		if err := in.store.InsertWitsRecord(ctx, rec); err != nil {
			summary.Skipped++
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			}
		} else {
			summary.Inserted++
		}

		rowNum++
		if rowNum%witsLogBatchSize == 0 {
			log.WithFields(logrus.Fields{
				"batch":    rowNum / witsLogBatchSize,
				"inserted": summary.Inserted,
				"skipped":  summary.Skipped,
			}).Debug("Ingestion batch progress")
		}
	}

	return summary, nil
}

// findHeaderLine scans raw lines for the first one beginning with the DATE
// index column, tolerating tab delimiters and a quoted header. Everything
// before it is vendor preamble and is discarded.
func findHeaderLine(lines []string) int {
	for i, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))
		if strings.HasPrefix(trimmed, "DATE,") ||
			strings.HasPrefix(trimmed, "DATE\t") ||
			strings.HasPrefix(trimmed, `"DATE"`) {
			return i
		}
	}
	return -1
}

// detectDelimiter picks the field separator from the header line. WITS
// exports come both comma and tab separated; the more frequent of the two
// in the header wins.
func detectDelimiter(header string) rune {
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		return '\t'
	}
	return ','
}

// isDataRow filters out descriptive placeholder rows that vendors emit under
// the header ("YYYY-MM-DD hh:mm:ss" and the like) plus anything whose index
// value does not lead with an ISO date.
func isDataRow(date string) bool {
	if date == "" || strings.Contains(date, "YYYY") || strings.Contains(date, "hh:mm:ss") {
		return false
	}
	return isoDatePrefix.MatchString(date)
}

// witsChannels maps header names to positions in the decoded channel slice.
var witsChannels = []string{
	"MD_ACTC", "MD_BPOS", "MD_BSTS", "MD_CHKP", "MD_DBTM", "MD_DBTV",
	"MD_DMEA", "MD_DVER", "MD_HKLD", "MD_MFIA", "MD_MFOA", "MD_MFOP",
	"MD_MSE", "MD_ROP", "MD_SPM1", "MD_SPM2", "MD_SPPA", "MD_SSPEED",
	"MD_SSTS", "MD_STKC", "MD_SWOB", "MD_TDRPM", "MD_TDTQA", "MD_TVA", "MD_TVCA",
}

func decodeWitsRow(record []string, columnIndex map[string]int, date string) *types.WitsRecord {
	values := make([]*float64, len(witsChannels))
	for i, name := range witsChannels {
		idx, ok := columnIndex[name]
		if !ok || idx >= len(record) {
			continue
		}
		values[i] = parseNumber(record[idx])
	}

	rec := &types.WitsRecord{Date: date}
	fields := []**float64{
		&rec.MDActc, &rec.MDBpos, &rec.MDBsts, &rec.MDChkp,
		&rec.MDDbtm, &rec.MDDbtv, &rec.MDDmea, &rec.MDDver,
		&rec.MDHkld, &rec.MDMfia, &rec.MDMfoa, &rec.MDMfop,
		&rec.MDMse, &rec.MDRop, &rec.MDSpm1, &rec.MDSpm2,
		&rec.MDSppa, &rec.MDSspeed, &rec.MDSsts, &rec.MDStkc,
		&rec.MDSwob, &rec.MDTdrpm, &rec.MDTdtqa, &rec.MDTva, &rec.MDTvca,
	}
	for i, field := range fields {
		*field = values[i]
	}

	return rec
}

// parseNumber converts a CSV field to a float. Empty strings, the -9999
// no-reading sentinel, and anything non-numeric become nil.
func parseNumber(val string) *float64 {
	val = strings.TrimSpace(val)
	if val == "" || val == sentinelNoReading {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f == sentinelNoReadingF {
		return nil
	}
	return &f
}

// surfaceManifest is the fixed column contract for surface-sensor exports.
// Every column must be present in the header or the whole upload is
// rejected. Order here is the insert order.
var surfaceManifest = []string{
	"YYYY/MM/DD", "HH:MM:SS",
	"Hole Depth (ft)", "Bit Depth (ft)", "ROP (ft/hr)", "WOB (klbs)",
	"Hookload (klbs)", "Rotary speed (rpm)", "SPP (psi)", "Torque (klb-ft))",
	"Flow out (%)", "Flow in (gpm)", "Mud Volume (bbl)", "Block Height (ft)",
	"Pump 1 SPM (spm)", "Pump 1 Rate (gpm)", "Pump 2 SPM (spm)", "Pump 2 Rate (gpm)",
}

// ingestSurface handles the surface-sensor dialect: the 18-column header
// contract is load-bearing, so a missing column aborts before any write.
// On success the table is cleared and reloaded in 1000-row batches, each a
// single multi-row insert. Rows with a wrong column count or an unparseable
// date are skipped and logged, not reported to the caller.
func (in *Ingestor) ingestSurface(ctx context.Context, r io.Reader, runID string, log logrus.FieldLogger) (*types.IngestSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	headerLine := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerLine = i
			break
		}
	}
	if headerLine < 0 {
		return nil, &ValidationError{Message: "File is empty"}
	}

	header := parseLine(lines[headerLine], ',')
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.ReplaceAll(name, "\uFEFF", ""))
	}

	manifestIndex := make([]int, len(surfaceManifest))
	for i, want := range surfaceManifest {
		manifestIndex[i] = -1
		for j, got := range header {
			if strings.EqualFold(got, want) {
				manifestIndex[i] = j
				break
			}
		}
		if manifestIndex[i] < 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("Missing required column: %s", want)}
		}
	}

	// The upload replaces the whole data set.
	if err := in.store.DeleteAllRecords(ctx); err != nil {
		return nil, err
	}

	summary := &types.IngestSummary{RunID: runID}
	batch := make([][]string, 0, reloadBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := in.store.InsertRecordBatch(ctx, batch); err != nil {
			return err
		}
		summary.Inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	for lineNum, line := range lines[headerLine+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := parseLine(line, ',')
		if len(fields) != len(header) {
			summary.Total++
			summary.Skipped++
			log.WithFields(logrus.Fields{
				"line":   headerLine + 1 + lineNum,
				"fields": len(fields),
				"want":   len(header),
			}).Debug("Skipping row with wrong column count")
			continue
		}

		summary.Total++

		storedDate, err := dateutil.VendorDateToStorage(fields[manifestIndex[0]])
		if err != nil {
			summary.Skipped++
			log.WithFields(logrus.Fields{
				"line": headerLine + 1 + lineNum,
				"date": fields[manifestIndex[0]],
			}).Debug("Skipping row with unparseable date")
			continue
		}

		row := make([]string, len(surfaceManifest))
		row[0] = storedDate
		for i := 1; i < len(surfaceManifest); i++ {
			row[i] = strings.TrimSpace(fields[manifestIndex[i]])
		}

		batch = append(batch, row)
		if len(batch) >= reloadBatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return summary, nil
}
