package ingest

import (
	"io"

	"powercable/internal/model"
)

// Parser reads consumer load data from a source and returns readings.
type Parser interface {
	Parse(r io.Reader) ([]model.Reading, error)
}
