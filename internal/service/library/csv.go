package library

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParsedRow is one row of an uploaded vocabulary CSV after header
// normalization. Rank is nil when the column is absent or blank.
type ParsedRow struct {
	Rank        *int
	Word        string
	Translation string
	Context     string
}

// utf8BOM is the byte order mark some spreadsheet exports prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads an uploaded vocabulary file into rows. Headers are matched
// case-insensitively and a leading UTF-8 BOM is tolerated. Rows with an
// empty word are silently dropped; recoverable problems such as a
// non-numeric rank are collected into the returned problem list so a
// partial import can still proceed.
func ParseCSV(data []byte) ([]ParsedRow, []string, error) {
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("csv must be UTF-8 encoded")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["word"]; !ok {
		return nil, nil, fmt.Errorf("csv must include a %q column", "word")
	}

	field := func(record []string, names ...string) string {
		for _, name := range names {
			if idx, ok := columns[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
		}
		return ""
	}

	var rows []ParsedRow
	var problems []string

	// Line numbers start at 2: the header is line 1.
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		word := field(record, "word")
		if word == "" {
			continue
		}

		var rank *int
		if raw := field(record, "rank"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("line %d: invalid rank %q (must be an integer)", line, raw))
			} else {
				rank = &n
			}
		}

		rows = append(rows, ParsedRow{
			Rank:        rank,
			Word:        word,
			Translation: field(record, "translation"),
			Context:     field(record, "context", "context_sentence", "context sentence"),
		})
	}

	return rows, problems, nil
}

// writeCSV renders deck entries in the import format, so a deck exported
// from one instance can be imported into another unchanged. The membership
// position is written in the rank column.
func writeCSV(w io.Writer, rows []exportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"rank", "word", "translation", "context"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Position),
			row.Word,
			row.Translation,
			row.Context,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// exportRow is one line of a deck export.
type exportRow struct {
	Position    int
	Word        string
	Translation string
	Context     string
}
