package excel

// ExcelConfig holds configuration for a spreadsheet record source
type ExcelConfig struct {
	FilePath    string `json:"file_path"`
	DataSheet   string `json:"data_sheet"`
	LimitsSheet string `json:"limits_sheet"`
	Enabled     bool   `json:"enabled"`
}

// DefaultExcelConfig reads records from Sheet1 and limits, when present,
// from a sheet named spc_limits
func DefaultExcelConfig(path string) ExcelConfig {
	return ExcelConfig{
		FilePath:    path,
		DataSheet:   "Sheet1",
		LimitsSheet: "spc_limits",
		Enabled:     path != "",
	}
}
