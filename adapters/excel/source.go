package excel

import (
	"context"
	"sync"

	"spcdash/domain/measurement"
	"spcdash/internal"
)

// Source serves records, and limits when the workbook has a limits sheet,
// from one spreadsheet. The file is read once on first use.
type Source struct {
	config ExcelConfig
	logger *internal.Logger

	once    sync.Once
	err     error
	records []measurement.Record
	limits  []measurement.Limits
}

// NewSource creates a lazily loaded spreadsheet source
func NewSource(config ExcelConfig) *Source {
	if config.DataSheet == "" {
		config.DataSheet = "Sheet1"
	}
	return &Source{config: config, logger: internal.DefaultLogger.With("excel")}
}

func (s *Source) Name() string { return "excel" }

func (s *Source) load() error {
	s.once.Do(func() {
		reader := NewDataReader(s.config.FilePath)
		data, err := reader.ReadData(s.config.DataSheet)
		if err != nil {
			s.err = err
			return
		}
		if s.records, err = ToRecords(data); err != nil {
			s.err = err
			return
		}
		if s.config.LimitsSheet != "" && reader.HasSheet(s.config.LimitsSheet) {
			ldata, err := reader.ReadData(s.config.LimitsSheet)
			if err != nil {
				s.err = err
				return
			}
			if s.limits, err = ToLimits(ldata); err != nil {
				s.err = err
				return
			}
		}
		s.logger.Info("loaded %d records and %d limits from %s", len(s.records), len(s.limits), s.config.FilePath)
	})
	return s.err
}

// FetchRecords filters the spreadsheet rows like the database query would
func (s *Source) FetchRecords(ctx context.Context, filter measurement.Filter) ([]measurement.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return measurement.Select(s.records, filter)
}

// CurrentLimits returns the newest limits per chart from the limits sheet
func (s *Source) CurrentLimits(ctx context.Context, q measurement.LimitsQuery) ([]measurement.Limits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return measurement.CurrentLimits(s.limits, q), nil
}

// Monitors lists the combinations present in the sheet
func (s *Source) Monitors(ctx context.Context) ([]measurement.LimitsQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return measurement.Monitors(s.records), nil
}
