// Package export renders curve sets and resolved operating points as
// spreadsheets and PDF reports, and reads batch queries from spreadsheets.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the curve workbook.
const (
	PumpSheet   = "pump"
	CurvesSheet = "curves"
)

// MaxBatchRows caps the queries read from one workbook.
const MaxBatchRows = 1000

// Sentinel errors for workbook input.
var (
	ErrInvalidWorkbook = errors.New("invalid workbook")
	ErrTooManyRows     = errors.New("too many rows")
)

var curveHeader = []string{"Flow (m³/h)", "Head (m)", "Power (CV)", "NPSH (m)", "Efficiency (%)"}

// CurvesXLSX writes a two-sheet workbook: the nameplate data and the sampled curves.
func CurvesXLSX(spec pump.Spec, set curve.Set) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PumpSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(CurvesSheet); err != nil {
		return nil, err
	}

	nameplate := [][2]any{
		{"Pump", spec.Name},
		{"Rated power (CV)", spec.RatedPowerCV},
		{"Rated speed (rpm)", spec.RatedRPM},
		{"Rated NPSH (m)", spec.RatedNPSHM},
		{"Rated efficiency (%)", spec.RatedEfficiencyPercent},
		{"Max flow (m³/h)", set.MaxFlow()},
		{"Samples", set.Len()},
	}
	for i, kv := range nameplate {
		row := i + 1
		_ = f.SetCellValue(PumpSheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(PumpSheet, fmt.Sprintf("B%d", row), kv[1])
	}

	if err := f.SetSheetRow(CurvesSheet, "A1", &curveHeader); err != nil {
		return nil, err
	}
	for i := range set.Flow {
		values := []any{set.Flow[i], set.Head[i], set.Power[i], set.NPSH[i], set.Efficiency[i]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(CurvesSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BatchRow is one line of a batch workbook. Err is set when the line could
// not be parsed into a query.
type BatchRow struct {
	Line  int
	Query operating.Query
	Err   error
}

// ReadQueriesXLSX reads queries from the first sheet of a workbook. The first
// row is a header; following rows hold pump, flow and an optional head.
// Blank rows are skipped.
func ReadQueriesXLSX(r io.Reader) ([]BatchRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidWorkbook)
	}
	if len(rows)-1 > MaxBatchRows {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRows, len(rows)-1, MaxBatchRows)
	}

	out := make([]BatchRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		q, err := parseQueryRow(row)
		out = append(out, BatchRow{Line: i + 1, Query: q, Err: err})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseQueryRow(row []string) (operating.Query, error) {
	if len(row) < 2 {
		return operating.Query{}, errors.New("expected pump and flow columns")
	}
	q := operating.Query{Pump: strings.TrimSpace(row[0])}
	if q.Pump == "" {
		return operating.Query{}, errors.New("pump name is empty")
	}
	flow, err := toFloat(row[1])
	if err != nil {
		return operating.Query{}, fmt.Errorf("flow: %w", err)
	}
	q.Flow = flow
	if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
		head, err := toFloat(row[2])
		if err != nil {
			return operating.Query{}, fmt.Errorf("head: %w", err)
		}
		q.Head = operating.HeadOf(head)
	}
	return q, nil
}

// toFloat accepts a decimal comma as written by Portuguese locales.
func toFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

var queryHeader = []string{"pump", "flow", "head"}

// QueriesXLSX writes queries in the layout ReadQueriesXLSX reads. The head
// cell is left empty when a query names none.
func QueriesXLSX(queries []operating.Query) ([]byte, error) {
	if len(queries) > MaxBatchRows {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRows, len(queries), MaxBatchRows)
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &queryHeader); err != nil {
		return nil, err
	}
	for i, q := range queries {
		values := []any{q.Pump, q.Flow}
		if q.Head != nil {
			values = append(values, *q.Head)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
