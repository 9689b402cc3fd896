// Package dataset reads and writes two-column time series tables.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// timeLayouts are tried in order when decoding a timestamp cell.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Point is one observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an ordered set of points read from a timestamp and a value column.
type Series struct {
	TimeColumn  string
	ValueColumn string
	Points      []Point
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.Points)
}

// Times returns the timestamps in order.
func (s *Series) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

// Tail returns a series holding the last n points, or every point when n
// exceeds the length. n <= 0 yields an empty series.
func (s *Series) Tail(n int) *Series {
	if n < 0 {
		n = 0
	}
	if n > len(s.Points) {
		n = len(s.Points)
	}
	points := make([]Point, n)
	copy(points, s.Points[len(s.Points)-n:])
	return &Series{TimeColumn: s.TimeColumn, ValueColumn: s.ValueColumn, Points: points}
}

// Read loads timeCol and valueCol from path. Files ending in .xlsx are read from
// their first sheet; anything else is parsed as CSV.
func Read(path, timeCol, valueCol string) (*Series, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, timeCol, valueCol)
	}
	return ReadCSV(path, timeCol, valueCol)
}

// ReadCSV loads a series from a CSV file with a header row.
func ReadCSV(path, timeCol, valueCol string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	s, err := fromRecords(records, timeCol, valueCol, ParseTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadXLSX loads a series from the first sheet of a workbook. Date cells are
// read as serial numbers; text cells go through ParseTime.
func ReadXLSX(path, timeCol, valueCol string) (*Series, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	s, err := fromRecords(rows, timeCol, valueCol, func(v string) (time.Time, error) {
		return parseSheetTime(v, date1904)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// parseSheetTime decodes a spreadsheet serial date, or a text timestamp.
func parseSheetTime(v string, date1904 bool) (time.Time, error) {
	if serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, err
		}
		// Serials carry float error; keep whole seconds.
		return t.Round(time.Second), nil
	}
	return ParseTime(v)
}

func fromRecords(records [][]string, timeCol, valueCol string, parseTime func(string) (time.Time, error)) (*Series, error) {
	if len(records) == 0 {
		return nil, errors.New("empty table")
	}
	header := records[0]
	ti := columnIndex(header, timeCol)
	if ti < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, timeCol)
	}
	vi := columnIndex(header, valueCol)
	if vi < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, valueCol)
	}

	s := &Series{TimeColumn: timeCol, ValueColumn: valueCol}
	for n, row := range records[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}
		ts, err := parseTime(cell(row, ti))
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", line, timeCol, err)
		}
		v, err := parseValue(cell(row, vi))
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", line, valueCol, err)
		}
		s.Points = append(s.Points, Point{Time: ts, Value: v})
	}
	return s, nil
}

// ParseTime decodes a timestamp in one of the supported layouts.
func ParseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
}

// parseValue decodes a float cell; an empty cell is a missing value.
func parseValue(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(v, 64)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes the series to path with its two column names as the header,
// replacing any existing file.
func WriteCSV(path string, s *Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes the series as CSV to w.
func Encode(w io.Writer, s *Series) error {
	layout := "2006-01-02"
	for _, p := range s.Points {
		if !isMidnight(p.Time) {
			layout = "2006-01-02 15:04:05"
			break
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{s.TimeColumn, s.ValueColumn}); err != nil {
		return err
	}
	for _, p := range s.Points {
		rec := []string{p.Time.Format(layout), formatValue(p.Value)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
