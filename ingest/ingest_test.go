package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/types"
)

// stubStore records everything written through the storage capability.
type stubStore struct {
	witsRecords []*types.WitsRecord
	batches     [][][]string
	deleted     bool

	failWitsDates map[string]error
}

func (s *stubStore) Count(ctx context.Context) (int64, error) { return 0, nil }
func (s *stubStore) AvailableDateRange(ctx context.Context) (*types.DateRange, error) {
	return nil, nil
}
func (s *stubStore) ListRecords(ctx context.Context, f types.RecordFilter) ([]types.DrillingRecord, error) {
	return nil, nil
}
func (s *stubStore) RecordStats(ctx context.Context, f types.RecordFilter) (*types.Stats, error) {
	return nil, nil
}
func (s *stubStore) ListRecentWits(ctx context.Context, limit int) ([]types.WitsRecord, error) {
	return nil, nil
}

func (s *stubStore) DeleteAllRecords(ctx context.Context) error {
	s.deleted = true
	return nil
}

func (s *stubStore) InsertRecordBatch(ctx context.Context, rows [][]string) error {
	copied := make([][]string, len(rows))
	for i, row := range rows {
		copied[i] = append([]string(nil), row...)
	}
	s.batches = append(s.batches, copied)
	return nil
}

func (s *stubStore) InsertWitsRecord(ctx context.Context, rec *types.WitsRecord) error {
	if err, ok := s.failWitsDates[rec.Date]; ok {
		return err
	}
	s.witsRecords = append(s.witsRecords, rec)
	return nil
}

func newTestIngestor(store *stubStore, profile string) *Ingestor {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return New(store, config.IngestConfig{
		Profile:     profile,
		MaxFileSize: 100 * 1024 * 1024,
	}, log)
}

func ingestString(t *testing.T, in *Ingestor, csv string) (*types.IngestSummary, error) {
	t.Helper()
	return in.Ingest(context.Background(), strings.NewReader(csv), "data.csv", int64(len(csv)))
}

func TestIngestRejectsNonCSV(t *testing.T) {
	in := newTestIngestor(&stubStore{}, config.ProfileWitsAppend)

	_, err := in.Ingest(context.Background(), strings.NewReader("x"), "data.txt", 1)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, ".csv")
}

func TestIngestRejectsOversizeFile(t *testing.T) {
	in := newTestIngestor(&stubStore{}, config.ProfileWitsAppend)

	_, err := in.Ingest(context.Background(), strings.NewReader("x"), "data.csv", 101*1024*1024)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "maximum size")
}

func TestWitsIngestSkipsVendorPreamble(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	csv := "Vendor: Acme Drilling\n" +
		"Well: TX-0042\n" +
		"\n" +
		"DATE,MD_ROP,MD_SWOB\n" +
		"YYYY-MM-DD hh:mm:ss,ft/hr,klbs\n" +
		"2021-08-02 13:45:00,42.5,18.2\n" +
		"2021-08-02 13:45:05,43.0,18.1\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, summary.Total)
	require.Len(t, store.witsRecords, 2)
	assert.Equal(t, "2021-08-02 13:45:00", store.witsRecords[0].Date)
	require.NotNil(t, store.witsRecords[0].MDRop)
	assert.InDelta(t, 42.5, *store.witsRecords[0].MDRop, 0.001)
}

func TestWitsIngestTabDelimited(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	csv := "DATE\tMD_ROP\tMD_SWOB\n" +
		"2021-08-02 13:45:00\t42.5\t18.2\n" +
		"2021-08-02 13:45:05\t43.0\t18.1\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	require.Len(t, store.witsRecords, 2)
	require.NotNil(t, store.witsRecords[0].MDRop)
	assert.InDelta(t, 42.5, *store.witsRecords[0].MDRop, 0.001)
	require.NotNil(t, store.witsRecords[1].MDSwob)
	assert.InDelta(t, 18.1, *store.witsRecords[1].MDSwob, 0.001)
}

func TestWitsIngestStripsByteOrderMark(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	csv := "\uFEFFDATE,MD_ROP\n" +
		"2021-08-02 13:45:00,42.5\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	require.Len(t, store.witsRecords, 1)
	require.NotNil(t, store.witsRecords[0].MDRop)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '\t', detectDelimiter("DATE\tMD_ROP\tMD_SWOB"))
	assert.Equal(t, ',', detectDelimiter("DATE,MD_ROP,MD_SWOB"))
	// A tab-separated header whose names contain commas still reads as
	// tab delimited.
	assert.Equal(t, '\t', detectDelimiter("DATE\tA,B\tC\tD"))
}

func TestWitsIngestMissingHeader(t *testing.T) {
	in := newTestIngestor(&stubStore{}, config.ProfileWitsAppend)

	_, err := ingestString(t, in, "TIME,MD_ROP\n2021-08-02,42.5\n")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "DATE column header")
}

func TestWitsIngestSentinelAndEmptyBecomeNil(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	csv := "DATE,MD_ROP,MD_SWOB,MD_HKLD\n" +
		"2021-08-02 13:45:00,-9999,,abc\n" +
		"2021-08-02 13:45:05,43.0,18.1,210.4\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	require.Len(t, store.witsRecords, 2)

	first := store.witsRecords[0]
	assert.Nil(t, first.MDRop, "-9999 sentinel must store as null")
	assert.Nil(t, first.MDSwob, "empty field must store as null")
	assert.Nil(t, first.MDHkld, "non-numeric field must store as null")

	second := store.witsRecords[1]
	require.NotNil(t, second.MDRop)
	assert.InDelta(t, 43.0, *second.MDRop, 0.001)
}

func TestWitsIngestFiltersPlaceholderAndBadDates(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	csv := "DATE,MD_ROP\n" +
		"YYYY-MM-DD hh:mm:ss,ft/hr\n" +
		",\n" +
		"not-a-date,42.0\n" +
		"2021-08-02 13:45:00,42.5\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Total)
	require.Len(t, store.witsRecords, 1)
}

func TestWitsIngestRowFailureDoesNotAbort(t *testing.T) {
	store := &stubStore{
		failWitsDates: map[string]error{
			"2021-08-02 13:45:05": errors.New("duplicate key"),
		},
	}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	csv := "DATE,MD_ROP\n" +
		"2021-08-02 13:45:00,42.5\n" +
		"2021-08-02 13:45:05,43.0\n" +
		"2021-08-02 13:45:10,43.5\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "duplicate key")
}

func TestWitsIngestBoundsReportedErrors(t *testing.T) {
	failures := make(map[string]error)
	var lines []string
	lines = append(lines, "DATE,MD_ROP")
	for i := 0; i < 10; i++ {
		date := fmt.Sprintf("2021-08-02 13:45:%02d", i)
		failures[date] = errors.New("constraint violation")
		lines = append(lines, date+",42.5")
	}

	store := &stubStore{failWitsDates: failures}
	in := newTestIngestor(store, config.ProfileWitsAppend)

	summary, err := ingestString(t, in, strings.Join(lines, "\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Skipped)
	assert.Len(t, summary.Errors, 5, "only the first five errors are reported")
}

const surfaceHeader = `"YYYY/MM/DD","HH:MM:SS","Hole Depth (ft)","Bit Depth (ft)","ROP (ft/hr)","WOB (klbs)","Hookload (klbs)","Rotary speed (rpm)","SPP (psi)","Torque (klb-ft))","Flow out (%)","Flow in (gpm)","Mud Volume (bbl)","Block Height (ft)","Pump 1 SPM (spm)","Pump 1 Rate (gpm)","Pump 2 SPM (spm)","Pump 2 Rate (gpm)"`

func surfaceRow(date, tm string) string {
	fields := []string{date, tm}
	for i := 0; i < 16; i++ {
		fields = append(fields, fmt.Sprintf("%d.%d", i, i))
	}
	return strings.Join(fields, ",")
}

func TestSurfaceIngestReloadsTable(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileSurfaceReload)

	csv := surfaceHeader + "\n" +
		surfaceRow("8/2/2021", "00:00:00") + "\n" +
		surfaceRow("8/2/2021", "00:00:05") + "\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)

	assert.True(t, store.deleted, "reload must clear the table first")
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Skipped)
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 2)

	// Vendor M/D/YYYY date converted to storage D/M/YY; everything else
	// carried as raw trimmed text.
	assert.Equal(t, "2/8/21", store.batches[0][0][0])
	assert.Equal(t, "00:00:00", store.batches[0][0][1])
	assert.Equal(t, "0.0", store.batches[0][0][2])
}

func TestSurfaceIngestMissingColumnAborts(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileSurfaceReload)

	header := strings.Replace(surfaceHeader, `"Mud Volume (bbl)",`, "", 1)
	csv := header + "\n" + surfaceRow("8/2/2021", "00:00:00") + "\n"

	_, err := ingestString(t, in, csv)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "Mud Volume (bbl)")

	assert.False(t, store.deleted, "a rejected upload must have no side effects")
	assert.Empty(t, store.batches)
}

func TestSurfaceIngestSkipsBadRows(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileSurfaceReload)

	csv := surfaceHeader + "\n" +
		surfaceRow("8/2/2021", "00:00:00") + "\n" +
		"too,short,row\n" +
		surfaceRow("not-a-date", "00:00:10") + "\n" +
		surfaceRow("8/2/2021", "00:00:15") + "\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 4, summary.Total)
	// Row-level problems in this profile are logged, not reported.
	assert.Empty(t, summary.Errors)
}

func TestSurfaceIngestBatchesAtBoundary(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileSurfaceReload)

	var b strings.Builder
	b.WriteString(surfaceHeader + "\n")
	for i := 0; i < reloadBatchSize+2; i++ {
		b.WriteString(surfaceRow("8/2/2021", fmt.Sprintf("%02d:%02d:%02d", i/3600, (i/60)%60, i%60)) + "\n")
	}

	summary, err := ingestString(t, in, b.String())
	require.NoError(t, err)
	assert.Equal(t, reloadBatchSize+2, summary.Inserted)
	require.Len(t, store.batches, 2)
	assert.Len(t, store.batches[0], reloadBatchSize)
	assert.Len(t, store.batches[1], 2)
}

func TestSurfaceIngestCaseInsensitiveHeader(t *testing.T) {
	store := &stubStore{}
	in := newTestIngestor(store, config.ProfileSurfaceReload)

	csv := strings.ToUpper(surfaceHeader) + "\n" + surfaceRow("8/2/2021", "00:00:00") + "\n"

	summary, err := ingestString(t, in, csv)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{
			name:     "plain fields",
			line:     "a,b,c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "quoted field with delimiter",
			line:     `"Torque (klb-ft))","Flow out (%)",plain`,
			expected: []string{"Torque (klb-ft))", "Flow out (%)", "plain"},
		},
		{
			name:     "doubled quotes inside quoted field",
			line:     `"say ""hi""",x`,
			expected: []string{`say "hi"`, "x"},
		},
		{
			name:     "empty fields",
			line:     "a,,c,",
			expected: []string{"a", "", "c", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLine(tt.line, ','))
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Nil(t, parseNumber(""))
	assert.Nil(t, parseNumber("-9999"))
	assert.Nil(t, parseNumber("-9999.0"))
	assert.Nil(t, parseNumber("n/a"))

	v := parseNumber(" 42.5 ")
	require.NotNil(t, v)
	assert.InDelta(t, 42.5, *v, 0.001)

	zero := parseNumber("0")
	require.NotNil(t, zero, "zero is a valid reading, not an absent one")
	assert.Zero(t, *zero)
}
