package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"powercable/internal/model"
)

func TestNewRecorderWithEmptyDSNIsDisabled(t *testing.T) {
	r, err := NewRecorder("")
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestNilRecorderMethodsAreNoOps(t *testing.T) {
	var r *Recorder
	assert.NoError(t, r.Record(model.ChartEntry{Series: "diff", Value: 1.0}))
	assert.NoError(t, r.Close())
}
