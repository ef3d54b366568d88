package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/gridshare/internal/encoding"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

var decimal3600 = decimal.NewFromInt(3600)

var ErrUnknownFormat = errors.New("no matching listing format found")

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
	"02-01-2006 15:04",
	"02-01-2006",
}

// Parser reads listing CSV files. It detects the delimiter and the column
// layout by matching headers against known profiles.
type Parser struct {
	now func() time.Time
}

func NewParser(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}

	return &Parser{now: now}
}

func (p *Parser) Parse(r io.Reader) (Result, error) {
	utf8r, charset, err := enc.NewDecodingReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return Result{}, fmt.Errorf("read input: %w", err)
	}

	for _, comma := range []rune{',', ';', '\t'} {
		rows, err := readRows(data, comma)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		res := p.parseRows(profile, cols, rows[headerIdx+1:])
		res.Charset = charset

		return res, nil
	}

	return Result{}, ErrUnknownFormat
}

// line pairs a record with its 1-based position in the file.
type line struct {
	num    int
	fields []string
}

func readRows(data []byte, comma rune) ([]line, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []line

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		num, _ := reader.FieldPos(0)
		rows = append(rows, line{num: num, fields: rec})
	}
}

// colIndex maps normalized header names to their index in the row.
type colIndex map[string]int

func detectProfile(rows []line) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row.fields {
			if name := normalizeHeader(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func (p *Parser) parseRows(prof *Profile, cols colIndex, rows []line) Result {
	res := Result{Format: prof.Name}

	for _, row := range rows {
		if blank(row.fields) {
			continue
		}

		spec, err := p.parseRow(prof, cols, row.fields)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: row.num, Err: err})
			continue
		}

		res.Rows = append(res.Rows, Row{Line: row.num, Spec: spec})
	}

	return res
}

func (p *Parser) parseRow(prof *Profile, cols colIndex, row []string) (market.ListingSpec, error) {
	var spec market.ListingSpec

	amount, err := parseNumber(cell(row, cols, prof.AmountCol))
	if err != nil {
		return spec, fmt.Errorf("energy amount: %w", err)
	}

	price, err := parseNumber(cell(row, cols, prof.PriceCol))
	if err != nil {
		return spec, fmt.Errorf("price: %w", err)
	}

	spec.EnergyAmount = amount
	spec.PricePerKwh = price
	spec.EnergySource = market.Source(strings.ToLower(cell(row, cols, prof.SourceCol)))
	spec.Location = cell(row, cols, prof.LocCol)

	if s := cell(row, cols, prof.FromCol); s != "" {
		if spec.AvailableFrom, err = parseTime(s); err != nil {
			return spec, fmt.Errorf("start: %w", err)
		}
	}

	switch prof.WindowMode {
	case windowUntil:
		if spec.AvailableUntil, err = parseTime(cell(row, cols, prof.UntilCol)); err != nil {
			return spec, fmt.Errorf("end: %w", err)
		}
	case windowHours:
		hours, err := parseNumber(cell(row, cols, prof.HoursCol))
		if err != nil {
			return spec, fmt.Errorf("hours: %w", err)
		}

		start := spec.AvailableFrom
		if start.IsZero() {
			start = p.now()
			spec.AvailableFrom = start
		}

		spec.AvailableUntil = start.Add(time.Duration(hours.Mul(decimal3600).IntPart()) * time.Second)
	}

	return spec, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing time")
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// cell safely gets a trimmed cell value by column name.
func cell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
