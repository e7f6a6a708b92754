// Package ingest reads delimited trading exports into trade rows.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"marginscope/internal/trade"
)

// Mapping names the export columns by header. Zero-value fields fall
// back to the fixed Korean headers of the supported exchange export.
type Mapping struct {
	Time      string
	Signal    string
	Price     string
	Quantity  string
	PnL       string // optional; empty disables P&L capture
	Delimiter rune   // defaults to ','
}

// DefaultMapping matches the stock export headers.
func DefaultMapping() Mapping {
	return Mapping{
		Time:     "날짜/시간",
		Signal:   "구분",
		Price:    "가격 USDT",
		Quantity: "개수",
		PnL:      "손익",
	}
}

func (m *Mapping) applyDefaults() {
	def := DefaultMapping()
	if strings.TrimSpace(m.Time) == "" {
		m.Time = def.Time
	}
	if strings.TrimSpace(m.Signal) == "" {
		m.Signal = def.Signal
	}
	if strings.TrimSpace(m.Price) == "" {
		m.Price = def.Price
	}
	if strings.TrimSpace(m.Quantity) == "" {
		m.Quantity = def.Quantity
	}
	if m.Delimiter == 0 {
		m.Delimiter = ','
	}
}

// ErrFormat marks structural input problems: missing header, missing
// required column, broken delimited framing.
var ErrFormat = errors.New("malformed input")

// ParseError reports a malformed cell. Any ParseError aborts the whole
// batch; the reader never skips bad rows.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %q: cannot parse %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// timestampLayouts are tried in order; the fixed minute-precision
// layout first because elapsed-time math assumes it.
var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ReadRows parses the export and returns rows sorted by timestamp
// ascending. A single unparseable cell fails the whole read.
func ReadRows(r io.Reader, mapping Mapping) ([]trade.Row, error) {
	mapping.applyDefaults()
	reader := csv.NewReader(r)
	reader.Comma = mapping.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input, missing header row", ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header failed: %v", ErrFormat, err)
	}
	idx, err := resolveColumns(header, mapping)
	if err != nil {
		return nil, err
	}

	var rows []trade.Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: reading line %d failed: %v", ErrFormat, line, err)
		}
		row, err := parseRecord(record, idx, mapping, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

type columnIndex struct {
	time     int
	signal   int
	price    int
	quantity int
	pnl      int // -1 when absent
}

func resolveColumns(header []string, mapping Mapping) (columnIndex, error) {
	find := func(name string) int {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		return -1
	}
	idx := columnIndex{
		time:     find(mapping.Time),
		signal:   find(mapping.Signal),
		price:    find(mapping.Price),
		quantity: find(mapping.Quantity),
		pnl:      -1,
	}
	for name, pos := range map[string]int{
		mapping.Time:     idx.time,
		mapping.Signal:   idx.signal,
		mapping.Price:    idx.price,
		mapping.Quantity: idx.quantity,
	} {
		if pos < 0 {
			return columnIndex{}, fmt.Errorf("%w: missing required column %q", ErrFormat, name)
		}
	}
	if strings.TrimSpace(mapping.PnL) != "" {
		idx.pnl = find(mapping.PnL)
	}
	return idx, nil
}

func parseRecord(record []string, idx columnIndex, mapping Mapping, line int) (trade.Row, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseTimestamp(cell(idx.time))
	if err != nil {
		return trade.Row{}, &ParseError{Line: line, Column: mapping.Time, Value: cell(idx.time), Err: err}
	}
	price, err := parseNumber(cell(idx.price))
	if err != nil {
		return trade.Row{}, &ParseError{Line: line, Column: mapping.Price, Value: cell(idx.price), Err: err}
	}
	qty, err := parseNumber(cell(idx.quantity))
	if err != nil {
		return trade.Row{}, &ParseError{Line: line, Column: mapping.Quantity, Value: cell(idx.quantity), Err: err}
	}
	row := trade.Row{Time: ts, Label: cell(idx.signal), Price: price, Quantity: qty}
	if idx.pnl >= 0 {
		if raw := cell(idx.pnl); raw != "" {
			pnl, err := parseNumber(raw)
			if err != nil {
				return trade.Row{}, &ParseError{Line: line, Column: mapping.PnL, Value: raw, Err: err}
			}
			row.PnL = &pnl
		}
	}
	return row, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	cleaned := strings.ReplaceAll(raw, ",", "")
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return val, nil
}
