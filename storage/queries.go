package storage

import (
	"fmt"

	"github.com/drillhub/drillview/types"
)

// recordSelect lists every column of the split schema with the aliases the
// JSON contract uses.
const recordSelect = `SELECT
	id,
	"YYYY/MM/DD" AS date_ymd,
	"HH:MM:SS" AS time_hms,
	"Hole Depth (ft)" AS hole_depth,
	"Bit Depth (ft)" AS bit_depth,
	"ROP (ft/hr)" AS rop,
	"WOB (klbs)" AS wob,
	"Hookload (klbs)" AS hookload,
	"Rotary speed (rpm)" AS rotary_speed,
	"SPP (psi)" AS spp,
	"Torque (klb-ft))" AS torque,
	"Flow out (%)" AS flow_out,
	"Flow in (gpm)" AS flow_in,
	"Mud Volume (bbl)" AS mud_volume,
	"Block Height (ft)" AS block_height,
	"Pump 1 SPM (spm)" AS pump1_spm,
	"Pump 1 Rate (gpm)" AS pump1_rate,
	"Pump 2 SPM (spm)" AS pump2_spm,
	"Pump 2 Rate (gpm)" AS pump2_rate,
	created_at
FROM drilling_data`

// statsSelect aggregates the same filtered set the data query returns.
// Measurements are stored as text, so aggregation goes through
// CAST(NULLIF(col, '') AS DECIMAL); empty sets yield NULL aggregates.
const statsSelect = `SELECT
	COUNT(*) AS total_records,
	MIN("YYYY/MM/DD") AS start_date,
	MAX("YYYY/MM/DD") AS end_date,
	AVG(CAST(NULLIF("ROP (ft/hr)", '') AS DECIMAL)) AS avg_rop,
	AVG(CAST(NULLIF("WOB (klbs)", '') AS DECIMAL)) AS avg_wob,
	AVG(CAST(NULLIF("Rotary speed (rpm)", '') AS DECIMAL)) AS avg_rpm,
	MAX(CAST(NULLIF("Hole Depth (ft)", '') AS DECIMAL)) AS max_hole_depth,
	MAX(CAST(NULLIF("Bit Depth (ft)", '') AS DECIMAL)) AS max_bit_depth
FROM drilling_data`

const dateRangeQuery = `SELECT
	MIN(to_date("YYYY/MM/DD", 'DD/MM/YY')) AS min_date,
	MAX(to_date("YYYY/MM/DD", 'DD/MM/YY')) AS max_date,
	MIN("HH:MM:SS") AS min_time,
	MAX("HH:MM:SS") AS max_time
FROM drilling_data`

// orderByDateTime sorts by the parsed date, then by the time text column.
// Lexical time ordering is valid because the time format is fixed-width
// zero-padded HH:MM:SS.
const orderByDateTime = ` ORDER BY to_date("YYYY/MM/DD", 'DD/MM/YY') ASC, "HH:MM:SS" ASC`

// rangePredicate builds the WHERE clause for one of the three filter shapes.
// With both dates and both times present, boundary days clip by time while
// interior days are fully included:
//
//	(date = start AND time >= startTime) OR date > start
//	AND (date = end AND time <= endTime) OR date < end
//
// With dates only, the range is an inclusive BETWEEN on the parsed dates.
// Without dates there is no predicate.
func rangePredicate(f types.RecordFilter) (string, []interface{}) {
	switch {
	case f.HasTimeRange():
		where := ` WHERE ((to_date("YYYY/MM/DD", 'DD/MM/YY') = to_date($1, 'DD/MM/YY') AND "HH:MM:SS" >= $2)` +
			` OR to_date("YYYY/MM/DD", 'DD/MM/YY') > to_date($1, 'DD/MM/YY'))` +
			` AND ((to_date("YYYY/MM/DD", 'DD/MM/YY') = to_date($3, 'DD/MM/YY') AND "HH:MM:SS" <= $4)` +
			` OR to_date("YYYY/MM/DD", 'DD/MM/YY') < to_date($3, 'DD/MM/YY'))`
		return where, []interface{}{f.StartDate, f.StartTime, f.EndDate, f.EndTime}

	case f.HasDateRange():
		where := ` WHERE to_date("YYYY/MM/DD", 'DD/MM/YY')` +
			` BETWEEN to_date($1, 'DD/MM/YY') AND to_date($2, 'DD/MM/YY')`
		return where, []interface{}{f.StartDate, f.EndDate}

	default:
		return "", nil
	}
}

// BuildRecordQuery builds the paginated data query for a filter.
func BuildRecordQuery(f types.RecordFilter) (string, []interface{}) {
	where, args := rangePredicate(f)

	query := recordSelect + where
	if where == "" {
		query += ` ORDER BY id ASC`
	} else {
		query += orderByDateTime
	}

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	return query, args
}

// BuildStatsQuery builds the aggregate query using the identical predicate,
// so statistics always describe exactly the filtered set.
func BuildStatsQuery(f types.RecordFilter) (string, []interface{}) {
	where, args := rangePredicate(f)
	return statsSelect + where, args
}
