package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2024, 3, 4, 5, 6, 7, 89_000_000, time.FixedZone("x", 3600))
	assert.Equal(t, "2024-03-04T04:06:07.089Z", formatRFC3339Millis(ts))
}

func TestNewWriterDropsEmptyStrings(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, false, true)

	log.Info("merged", "qt", "", "vectors", 3)
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "merged")
	assert.Contains(t, out, "vectors=3")
	assert.NotContains(t, out, "qt=")
	assert.NotContains(t, out, "hidden")
}

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
