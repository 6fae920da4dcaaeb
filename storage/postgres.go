// Package storage handles PostgreSQL access for drilling sensor data: schema
// migrations, range-filtered retrieval over the split date/time columns,
// aggregate statistics, and the two insertion strategies used by ingestion.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/dateutil"
	"github.com/drillhub/drillview/types"
)

// Store is the storage capability consumed by the API and ingestion layers.
type Store interface {
	// Split-schema operations.
	Count(ctx context.Context) (int64, error)
	AvailableDateRange(ctx context.Context) (*types.DateRange, error)
	ListRecords(ctx context.Context, f types.RecordFilter) ([]types.DrillingRecord, error)
	RecordStats(ctx context.Context, f types.RecordFilter) (*types.Stats, error)
	DeleteAllRecords(ctx context.Context) error
	InsertRecordBatch(ctx context.Context, rows [][]string) error

	// Combined-schema operations.
	InsertWitsRecord(ctx context.Context, rec *types.WitsRecord) error
	ListRecentWits(ctx context.Context, limit int) ([]types.WitsRecord, error)
}

// Database implements Store against PostgreSQL.
type Database struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewDatabase wraps an open connection pool.
func NewDatabase(db *sql.DB) *Database {
	return &Database{
		db:  db,
		log: logrus.WithField("component", "postgres"),
	}
}

// Connect opens a connection pool, verifies it with a ping, and returns a
// Database ready for use.
func Connect(cfg *config.PostgreSQLConfig) (*Database, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := NewDatabase(db)
	d.log.Info("Connected to PostgreSQL database")
	return d, nil
}

// DB exposes the underlying pool for migrations and shutdown.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// Count returns the total number of split-schema records.
func (d *Database) Count(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drilling_data`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// AvailableDateRange returns the min/max date and time over the whole table,
// regardless of any active filter. Returns nil when the table is empty.
func (d *Database) AvailableDateRange(ctx context.Context) (*types.DateRange, error) {
	var minDate, maxDate sql.NullTime
	var minTime, maxTime sql.NullString

	err := d.db.QueryRowContext(ctx, dateRangeQuery).Scan(&minDate, &maxDate, &minTime, &maxTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query date range: %w", err)
	}

	if !minDate.Valid || !maxDate.Valid {
		return nil, nil
	}

	formattedMin := dateutil.ToDisplayDate(minDate.Time)
	formattedMax := dateutil.ToDisplayDate(maxDate.Time)

	return &types.DateRange{
		MinDate: formattedMin,
		MaxDate: formattedMax,
		MinTime: minTime.String,
		MaxTime: maxTime.String,
		Display: fmt.Sprintf("%s → %s", formattedMin, formattedMax),
	}, nil
}

// ListRecords returns the filtered, paginated slice of records.
func (d *Database) ListRecords(ctx context.Context, f types.RecordFilter) ([]types.DrillingRecord, error) {
	query, args := BuildRecordQuery(f)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []types.DrillingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// scanRecord is the single decode point from raw text columns into a typed
// record; NULL measurement columns become nil pointers.
func scanRecord(rows *sql.Rows) (*types.DrillingRecord, error) {
	var rec types.DrillingRecord
	measurements := make([]sql.NullString, 16)

	dests := make([]interface{}, 0, 20)
	dests = append(dests, &rec.ID, &rec.DateYMD, &rec.TimeHMS)
	for i := range measurements {
		dests = append(dests, &measurements[i])
	}
	dests = append(dests, &rec.CreatedAt)

	if err := rows.Scan(dests...); err != nil {
		return nil, err
	}

	fields := []**string{
		&rec.HoleDepth, &rec.BitDepth, &rec.ROP, &rec.WOB,
		&rec.Hookload, &rec.RotarySpeed, &rec.SPP, &rec.Torque,
		&rec.FlowOut, &rec.FlowIn, &rec.MudVolume, &rec.BlockHeight,
		&rec.Pump1SPM, &rec.Pump1Rate, &rec.Pump2SPM, &rec.Pump2Rate,
	}
	for i, field := range fields {
		*field = nullableString(measurements[i])
	}

	return &rec, nil
}

// RecordStats runs the aggregate query for the same predicate as
// ListRecords. An empty filtered set resolves aggregates to nil values.
func (d *Database) RecordStats(ctx context.Context, f types.RecordFilter) (*types.Stats, error) {
	query, args := BuildStatsQuery(f)

	var stats types.Stats
	var startDate, endDate sql.NullString
	var avgROP, avgWOB, avgRPM, maxHole, maxBit sql.NullFloat64

	err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalRecords, &startDate, &endDate,
		&avgROP, &avgWOB, &avgRPM, &maxHole, &maxBit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}

	stats.StartDate = nullableString(startDate)
	stats.EndDate = nullableString(endDate)
	stats.AvgROP = nullableFloat(avgROP)
	stats.AvgWOB = nullableFloat(avgWOB)
	stats.AvgRPM = nullableFloat(avgRPM)
	stats.MaxHoleDepth = nullableFloat(maxHole)
	stats.MaxBitDepth = nullableFloat(maxBit)

	return &stats, nil
}

// DeleteAllRecords clears the split-schema table ahead of a full reload.
// Between this and the final batch insert the table is visibly empty to
// concurrent readers.
func (d *Database) DeleteAllRecords(ctx context.Context) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM drilling_data`)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	count, _ := result.RowsAffected()
	d.log.WithField("deleted_count", count).Info("Cleared drilling data for reload")
	return nil
}

// recordColumns lists the split-schema insert columns in CSV manifest order.
var recordColumns = []string{
	`"YYYY/MM/DD"`, `"HH:MM:SS"`,
	`"Hole Depth (ft)"`, `"Bit Depth (ft)"`, `"ROP (ft/hr)"`, `"WOB (klbs)"`,
	`"Hookload (klbs)"`, `"Rotary speed (rpm)"`, `"SPP (psi)"`, `"Torque (klb-ft))"`,
	`"Flow out (%)"`, `"Flow in (gpm)"`, `"Mud Volume (bbl)"`, `"Block Height (ft)"`,
	`"Pump 1 SPM (spm)"`, `"Pump 1 Rate (gpm)"`, `"Pump 2 SPM (spm)"`, `"Pump 2 Rate (gpm)"`,
}

// InsertRecordBatch inserts rows with a single multi-row statement. Each row
// must carry exactly len(recordColumns) values of raw trimmed text.
func (d *Database) InsertRecordBatch(ctx context.Context, batch [][]string) error {
	if len(batch) == 0 {
		return nil
	}

	cols := len(recordColumns)
	placeholders := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*cols)

	for i, row := range batch {
		if len(row) != cols {
			return fmt.Errorf("batch row %d has %d values, want %d", i, len(row), cols)
		}
		group := make([]string, cols)
		for j, val := range row {
			group[j] = fmt.Sprintf("$%d", i*cols+j+1)
			args = append(args, val)
		}
		placeholders = append(placeholders, "("+strings.Join(group, ", ")+")")
	}

	query := fmt.Sprintf(
		"INSERT INTO drilling_data (%s) VALUES %s",
		strings.Join(recordColumns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert batch of %d rows: %w", len(batch), err)
	}

	d.log.WithField("count", len(batch)).Debug("Inserted record batch")
	return nil
}

const witsInsert = `INSERT INTO wits_data (
	date, md_actc, md_bpos, md_bsts, md_chkp, md_dbtm, md_dbtv,
	md_dmea, md_dver, md_hkld, md_mfia, md_mfoa, md_mfop,
	md_mse, md_rop, md_spm1, md_spm2, md_sppa, md_sspeed,
	md_ssts, md_stkc, md_swob, md_tdrpm, md_tdtqa, md_tva, md_tvca
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`

// InsertWitsRecord inserts a single combined-schema sample. Callers treat a
// failure here as one skipped row, not a terminal error.
func (d *Database) InsertWitsRecord(ctx context.Context, rec *types.WitsRecord) error {
	_, err := d.db.ExecContext(ctx, witsInsert,
		rec.Date, rec.MDActc, rec.MDBpos, rec.MDBsts, rec.MDChkp,
		rec.MDDbtm, rec.MDDbtv, rec.MDDmea, rec.MDDver, rec.MDHkld,
		rec.MDMfia, rec.MDMfoa, rec.MDMfop, rec.MDMse, rec.MDRop,
		rec.MDSpm1, rec.MDSpm2, rec.MDSppa, rec.MDSspeed, rec.MDSsts,
		rec.MDStkc, rec.MDSwob, rec.MDTdrpm, rec.MDTdtqa, rec.MDTva, rec.MDTvca,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wits record: %w", err)
	}
	return nil
}

const witsSelect = `SELECT
	id, date, md_actc, md_bpos, md_bsts, md_chkp, md_dbtm, md_dbtv,
	md_dmea, md_dver, md_hkld, md_mfia, md_mfoa, md_mfop,
	md_mse, md_rop, md_spm1, md_spm2, md_sppa, md_sspeed,
	md_ssts, md_stkc, md_swob, md_tdrpm, md_tdtqa, md_tva, md_tvca
FROM wits_data
ORDER BY date DESC
LIMIT $1`

// ListRecentWits returns the most recent combined-schema samples,
// newest-first. The playback layer re-orders for display.
func (d *Database) ListRecentWits(ctx context.Context, limit int) ([]types.WitsRecord, error) {
	rows, err := d.db.QueryContext(ctx, witsSelect, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wits records: %w", err)
	}
	defer rows.Close()

	var records []types.WitsRecord
	for rows.Next() {
		var rec types.WitsRecord
		channels := make([]sql.NullFloat64, 25)

		dests := make([]interface{}, 0, 27)
		dests = append(dests, &rec.ID, &rec.Date)
		for i := range channels {
			dests = append(dests, &channels[i])
		}

		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan wits record: %w", err)
		}

		fields := []**float64{
			&rec.MDActc, &rec.MDBpos, &rec.MDBsts, &rec.MDChkp,
			&rec.MDDbtm, &rec.MDDbtv, &rec.MDDmea, &rec.MDDver,
			&rec.MDHkld, &rec.MDMfia, &rec.MDMfoa, &rec.MDMfop,
			&rec.MDMse, &rec.MDRop, &rec.MDSpm1, &rec.MDSpm2,
			&rec.MDSppa, &rec.MDSspeed, &rec.MDSsts, &rec.MDStkc,
			&rec.MDSwob, &rec.MDTdrpm, &rec.MDTdtqa, &rec.MDTva, &rec.MDTvca,
		}
		for i, field := range fields {
			*field = nullableFloat(channels[i])
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullableFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
