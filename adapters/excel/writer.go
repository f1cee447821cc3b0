package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"spcdash/domain/measurement"
)

const timestampLayout = "2006-01-02 15:04:05"

var recordColumns = []string{
	measurement.FieldEntity,
	measurement.FieldDate,
	measurement.FieldLot,
	measurement.FieldProcessType,
	measurement.FieldProductType,
	measurement.FieldSPCMonitor,
}

var limitsColumns = []string{"id", "process_type", "product_type", "spc_monitor_name", "spc_chart_name", "cl", "lcl", "ucl", "effective_date"}

// WriteFile saves records, and limits for .xlsx, in the layout the reader
// accepts. The format follows the file extension.
func WriteFile(path string, records []measurement.Record, limits []measurement.Limits) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, records)
	case ".xlsx":
		return writeWorkbook(path, records, limits)
	}
	return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// fieldColumns returns the sorted union of extra field names
func fieldColumns(records []measurement.Record) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r.Fields {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func recordRow(r measurement.Record, extra []string) []interface{} {
	row := []interface{}{r.Entity, r.Timestamp.Format(timestampLayout), r.Lot, r.ProcessType, r.ProductType, r.SPCMonitor}
	for _, k := range extra {
		v, ok := r.Fields[k]
		if !ok || v == nil {
			row = append(row, "")
			continue
		}
		row = append(row, v)
	}
	return row
}

func writeWorkbook(path string, records []measurement.Record, limits []measurement.Limits) error {
	f := excelize.NewFile()
	defer f.Close()

	extra := fieldColumns(records)
	header := make([]interface{}, 0, len(recordColumns)+len(extra))
	for _, c := range append(append([]string{}, recordColumns...), extra...) {
		header = append(header, c)
	}
	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, recordRow(r, extra)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if len(limits) > 0 {
		if _, err := f.NewSheet("spc_limits"); err != nil {
			return err
		}
		header := make([]interface{}, len(limitsColumns))
		for i, c := range limitsColumns {
			header[i] = c
		}
		if err := f.SetSheetRow("spc_limits", "A1", &header); err != nil {
			return err
		}
		for i, l := range limits {
			row := []interface{}{l.ID, l.ProcessType, l.ProductType, l.SPCMonitor, l.ChartName,
				cellFloat(l.CL), cellFloat(l.LCL), cellFloat(l.UCL), l.EffectiveDate.Format(timestampLayout)}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow("spc_limits", cell, &row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeCSV(path string, records []measurement.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	extra := fieldColumns(records)
	w := csv.NewWriter(file)
	if err := w.Write(append(append([]string{}, recordColumns...), extra...)); err != nil {
		return err
	}
	for _, r := range records {
		row := recordRow(r, extra)
		out := make([]string, len(row))
		for i, v := range row {
			out[i] = fmt.Sprint(v)
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cellFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
