package ingest

import "strings"

// parseLine splits one CSV line on the delimiter, honoring quoted fields
// that contain the delimiter and doubled quotes inside quoted fields. The
// surface-sensor exports carry quoted column names like "Torque (klb-ft))",
// which is why the header pass cannot simply split on commas.
func parseLine(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	fields = append(fields, cur.String())

	return fields
}
