package excel

// RawRowData is one sheet row keyed by normalized header
type RawRowData map[string]string

// ExcelData is a parsed sheet
type ExcelData struct {
	Headers []string
	Rows    []RawRowData
}
