// Package types defines the shared data shapes for the drilling data
// service: persisted records for both schema variants, query filters, and
// the composite payloads returned by the API.
package types

import "time"

// DrillingRecord is one sensor sample in the split-column schema: date and
// time live in separate text columns and every measurement is stored as raw
// text exactly as exported. Nil means the source field was empty.
type DrillingRecord struct {
	ID          int64     `json:"id"`
	DateYMD     string    `json:"date_ymd"`
	TimeHMS     string    `json:"time_hms"`
	HoleDepth   *string   `json:"hole_depth"`
	BitDepth    *string   `json:"bit_depth"`
	ROP         *string   `json:"rop"`
	WOB         *string   `json:"wob"`
	Hookload    *string   `json:"hookload"`
	RotarySpeed *string   `json:"rotary_speed"`
	SPP         *string   `json:"spp"`
	Torque      *string   `json:"torque"`
	FlowOut     *string   `json:"flow_out"`
	FlowIn      *string   `json:"flow_in"`
	MudVolume   *string   `json:"mud_volume"`
	BlockHeight *string   `json:"block_height"`
	Pump1SPM    *string   `json:"pump1_spm"`
	Pump1Rate   *string   `json:"pump1_rate"`
	Pump2SPM    *string   `json:"pump2_spm"`
	Pump2Rate   *string   `json:"pump2_rate"`
	CreatedAt   time.Time `json:"created_at"`
}

// WitsRecord is one sample in the combined-timestamp schema used by WITS
// exports: a single date+time field plus numeric channels already coerced at
// ingestion. Nil means the instrument reported no reading (empty or the
// -9999 sentinel).
type WitsRecord struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	MDActc   *float64 `json:"md_actc"`
	MDBpos   *float64 `json:"md_bpos"`
	MDBsts   *float64 `json:"md_bsts"`
	MDChkp   *float64 `json:"md_chkp"`
	MDDbtm   *float64 `json:"md_dbtm"`
	MDDbtv   *float64 `json:"md_dbtv"`
	MDDmea   *float64 `json:"md_dmea"`
	MDDver   *float64 `json:"md_dver"`
	MDHkld   *float64 `json:"md_hkld"`
	MDMfia   *float64 `json:"md_mfia"`
	MDMfoa   *float64 `json:"md_mfoa"`
	MDMfop   *float64 `json:"md_mfop"`
	MDMse    *float64 `json:"md_mse"`
	MDRop    *float64 `json:"md_rop"`
	MDSpm1   *float64 `json:"md_spm1"`
	MDSpm2   *float64 `json:"md_spm2"`
	MDSppa   *float64 `json:"md_sppa"`
	MDSspeed *float64 `json:"md_sspeed"`
	MDSsts   *float64 `json:"md_ssts"`
	MDStkc   *float64 `json:"md_stkc"`
	MDSwob   *float64 `json:"md_swob"`
	MDTdrpm  *float64 `json:"md_tdrpm"`
	MDTdtqa  *float64 `json:"md_tdtqa"`
	MDTva    *float64 `json:"md_tva"`
	MDTvca   *float64 `json:"md_tvca"`
}

// RecordFilter carries an optional date/time range for split-schema queries.
// Dates are already in storage format (D/M/YY) and times already normalized
// to HH:MM:SS; an empty field means the bound is absent.
type RecordFilter struct {
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
	Limit     int
	Offset    int
}

// HasDateRange reports whether both date bounds are present. Date filtering
// is all-or-nothing: a single bound falls back to the unfiltered shape.
func (f RecordFilter) HasDateRange() bool {
	return f.StartDate != "" && f.EndDate != ""
}

// HasTimeRange reports whether both time bounds are present on top of a date
// range, which switches the predicate to boundary-day time clipping.
func (f RecordFilter) HasTimeRange() bool {
	return f.HasDateRange() && f.StartTime != "" && f.EndTime != ""
}

// Stats aggregates the exact set of rows matched by a record filter, never
// the whole table when a filter applies. Pointer fields are nil when the
// filtered set is empty.
type Stats struct {
	TotalRecords int64    `json:"total_records"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	AvgROP       *float64 `json:"avg_rop"`
	AvgWOB       *float64 `json:"avg_wob"`
	AvgRPM       *float64 `json:"avg_rpm"`
	MaxHoleDepth *float64 `json:"max_hole_depth"`
	MaxBitDepth  *float64 `json:"max_bit_depth"`
}

// DateRange describes the full extent of data available, used by the UI to
// bound its date picker. Always computed on the unfiltered table.
type DateRange struct {
	MinDate string `json:"min_date_html"`
	MaxDate string `json:"max_date_html"`
	MinTime string `json:"min_time"`
	MaxTime string `json:"max_time"`
	Display string `json:"display"`
}

// Pagination echoes the paging inputs plus the HasMore approximation:
// HasMore is true exactly when the returned row count equals the requested
// limit. It can report true on a page that happens to end the data set; it
// never reports false when more rows exist beyond a full page.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
	Total   int64 `json:"total"`
}

// IngestSummary reports the outcome of one CSV upload. Errors holds at most
// the first five row-level failure messages.
type IngestSummary struct {
	RunID    string   `json:"runId"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors,omitempty"`
}
