package excel

// RawRowData represents a row of raw sheet data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents a complete sheet: header row plus data rows
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Column returns the header matching name case-insensitively
func (d *ExcelData) Column(name string) (string, bool) {
	for _, h := range d.Headers {
		if equalFold(h, name) {
			return h, true
		}
	}
	return "", false
}
