package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSLPParserParsesTwoColumnCSV(t *testing.T) {
	p := NewSLPParser()
	input := "1700000000,1.25\n1700000300,1.40\n"

	readings, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, int64(1700000000), readings[0].Timestamp)
	assert.InDelta(t, 1.25, readings[0].ValueKW, 1e-9)
	assert.Equal(t, int64(1700000300), readings[1].Timestamp)
}

func TestSLPParserRejectsBadTimestamp(t *testing.T) {
	p := NewSLPParser()
	_, err := p.Parse(strings.NewReader("not-a-number,1.0\n"))
	assert.Error(t, err)
}

func TestSLPParserRejectsBadValue(t *testing.T) {
	p := NewSLPParser()
	_, err := p.Parse(strings.NewReader("1700000000,not-a-number\n"))
	assert.Error(t, err)
}

func TestSLPParserEmptyInput(t *testing.T) {
	p := NewSLPParser()
	readings, err := p.Parse(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, readings)
}
