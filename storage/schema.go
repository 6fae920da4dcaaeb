package storage

// DrillingDataTable is the split-column schema: date and time live in
// separate text columns whose names carry the format of their contents, and
// measurements are stored as raw text exactly as exported.
const DrillingDataTable = `
CREATE TABLE IF NOT EXISTS drilling_data (
	id SERIAL PRIMARY KEY,
	"YYYY/MM/DD" VARCHAR(255),
	"HH:MM:SS" VARCHAR(255),
	"Hole Depth (ft)" VARCHAR(255),
	"Bit Depth (ft)" VARCHAR(255),
	"ROP (ft/hr)" VARCHAR(255),
	"WOB (klbs)" VARCHAR(255),
	"Hookload (klbs)" VARCHAR(255),
	"Rotary speed (rpm)" VARCHAR(255),
	"SPP (psi)" VARCHAR(255),
	"Torque (klb-ft))" VARCHAR(255),
	"Flow out (%)" VARCHAR(255),
	"Flow in (gpm)" VARCHAR(255),
	"Mud Volume (bbl)" VARCHAR(255),
	"Block Height (ft)" VARCHAR(255),
	"Pump 1 SPM (spm)" VARCHAR(255),
	"Pump 1 Rate (gpm)" VARCHAR(255),
	"Pump 2 SPM (spm)" VARCHAR(255),
	"Pump 2 Rate (gpm)" VARCHAR(255),
	created_at TIMESTAMPTZ DEFAULT NOW()
)`

// WitsDataTable is the combined-timestamp schema used by WITS exports: one
// date+time column and numeric channels with short mnemonic names.
const WitsDataTable = `
CREATE TABLE IF NOT EXISTS wits_data (
	id SERIAL PRIMARY KEY,
	date VARCHAR(255),
	md_actc DECIMAL,
	md_bpos DECIMAL,
	md_bsts DECIMAL,
	md_chkp DECIMAL,
	md_dbtm DECIMAL,
	md_dbtv DECIMAL,
	md_dmea DECIMAL,
	md_dver DECIMAL,
	md_hkld DECIMAL,
	md_mfia DECIMAL,
	md_mfoa DECIMAL,
	md_mfop DECIMAL,
	md_mse DECIMAL,
	md_rop DECIMAL,
	md_spm1 DECIMAL,
	md_spm2 DECIMAL,
	md_sppa DECIMAL,
	md_sspeed DECIMAL,
	md_ssts DECIMAL,
	md_stkc DECIMAL,
	md_swob DECIMAL,
	md_tdrpm DECIMAL,
	md_tdtqa DECIMAL,
	md_tva DECIMAL,
	md_tvca DECIMAL,
	created_at TIMESTAMPTZ DEFAULT NOW()
)`

// CreateIndices returns SQL for the query paths the API exercises.
func CreateIndices() string {
	return `
	CREATE INDEX IF NOT EXISTS idx_drilling_data_date ON drilling_data("YYYY/MM/DD");
	CREATE INDEX IF NOT EXISTS idx_wits_data_date ON wits_data(date DESC);
	`
}
