package service

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/yakoovad/perftest-admin/internal/model"
)

const utf8BOM = "\ufeff"

var errEmptyCSV = errors.New("csv file has no header row")

// parseCSV reads the header row and the remaining records. Ragged rows are kept as is.
func parseCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errEmptyCSV
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read csv header")
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}

	rows := make([][]string, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "read csv record")
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

// numericColumns summarises the columns whose non-empty cells all parse as numbers.
func numericColumns(headers []string, rows [][]string) []*model.ColumnStats {
	res := make([]*model.ColumnStats, 0)

	for col, name := range headers {
		var (
			stats   = &model.ColumnStats{Column: name}
			mean    float64
			numeric = true
		)
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				numeric = false
				break
			}
			if stats.Count == 0 || v < stats.Min {
				stats.Min = v
			}
			if stats.Count == 0 || v > stats.Max {
				stats.Max = v
			}
			stats.Count++
			// Running mean: a plain sum overflows for values near MaxFloat64.
			n := float64(stats.Count)
			mean += v/n - mean/n
		}
		if !numeric || stats.Count == 0 {
			continue
		}
		stats.Mean = mean
		res = append(res, stats)
	}
	return res
}
