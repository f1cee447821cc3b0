package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"spcdash/domain/measurement"
	"spcdash/internal"
)

// Timestamp layouts accepted in the date_process column
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/06 15:04",
	"01-02-06",
	"2006-01-02",
}

// DataReader reads measurement rows from .xlsx or .csv files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader picks the format from the file extension
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.EqualFold(filepath.Ext(filePath), ".csv") {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger.With("excel")}
}

// ReadData reads the named sheet (ignored for CSV)
func (r *DataReader) ReadData(sheet string) (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	start := time.Now()
	var rows [][]string
	var err error
	if r.fileType == "csv" {
		rows, err = r.readCSVRows()
	} else {
		rows, err = r.readExcelRows(sheet)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("%s has no header row", r.filePath)
	}
	return processRows(rows), nil
}

// HasSheet reports whether an xlsx workbook contains sheet
func (r *DataReader) HasSheet(sheet string) bool {
	if r.fileType != "xlsx" {
		return false
	}
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return false
	}
	defer f.Close()
	idx, err := f.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

func (r *DataReader) readExcelRows(sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows keys every data row by its lower-cased header
func processRows(rows [][]string) *ExcelData {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	data := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		empty := true
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				cell = strings.TrimSpace(cell)
				rowData[headers[j]] = cell
				if cell != "" {
					empty = false
				}
			}
		}
		if !empty {
			data = append(data, rowData)
		}
	}
	return &ExcelData{Headers: headers, Rows: data}
}

// ToRecords converts rows to measurement records. Well-known columns fill
// the record's typed fields; everything else lands in Fields as raw text.
func ToRecords(data *ExcelData) ([]measurement.Record, error) {
	records := make([]measurement.Record, 0, len(data.Rows))
	for i, row := range data.Rows {
		rec := measurement.Record{Fields: make(map[string]interface{})}
		for key, val := range row {
			switch key {
			case measurement.FieldEntity:
				rec.Entity = val
			case measurement.FieldLot:
				rec.Lot = val
			case measurement.FieldProcessType:
				rec.ProcessType = val
			case measurement.FieldProductType:
				rec.ProductType = val
			case measurement.FieldSPCMonitor:
				rec.SPCMonitor = val
			case measurement.FieldDate:
				if val == "" {
					continue
				}
				ts, err := ParseTimestamp(val)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", i+2, err)
				}
				rec.Timestamp = ts
			default:
				if val != "" {
					rec.Fields[key] = val
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ToLimits converts rows of an spc_limits sheet
func ToLimits(data *ExcelData) ([]measurement.Limits, error) {
	out := make([]measurement.Limits, 0, len(data.Rows))
	for i, row := range data.Rows {
		l := measurement.Limits{
			ID:          int64(i + 1),
			ProcessType: row["process_type"],
			ProductType: row["product_type"],
			SPCMonitor:  row["spc_monitor_name"],
			ChartName:   row["spc_chart_name"],
			CL:          optionalFloat(row["cl"]),
			LCL:         optionalFloat(row["lcl"]),
			UCL:         optionalFloat(row["ucl"]),
		}
		if id, err := strconv.ParseInt(row["id"], 10, 64); err == nil {
			l.ID = id
		}
		if v := row["effective_date"]; v != "" {
			ts, err := ParseTimestamp(v)
			if err != nil {
				return nil, fmt.Errorf("limits row %d: %w", i+2, err)
			}
			l.EffectiveDate = ts
		}
		out = append(out, l)
	}
	return out, nil
}

// ParseTimestamp accepts the date formats spreadsheets commonly export
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func optionalFloat(s string) *float64 {
	v, ok := measurement.CoerceFloat(s)
	if !ok {
		return nil
	}
	return &v
}
