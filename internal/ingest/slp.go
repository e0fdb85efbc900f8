package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"powercable/internal/model"
)

// SLPParser reads a standard-load-profile CSV: two columns, a Unix
// timestamp (seconds) and a kW load value, no header. Adapted from the
// teacher's header-aware HomeAssistant CSV parser to the simpler two-column
// shape SLP exports use.
type SLPParser struct{}

// NewSLPParser returns a ready-to-use SLPParser.
func NewSLPParser() *SLPParser {
	return &SLPParser{}
}

// Parse implements Parser.
func (p *SLPParser) Parse(r io.Reader) ([]model.Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	var readings []model.Reading
	lineNo := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: slp: read line %d: %w", lineNo+1, err)
		}
		lineNo++

		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: slp: line %d: invalid timestamp %q: %w", lineNo, record[0], err)
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: slp: line %d: invalid value %q: %w", lineNo, record[1], err)
		}

		readings = append(readings, model.Reading{Timestamp: ts, ValueKW: value})
	}
	return readings, nil
}
