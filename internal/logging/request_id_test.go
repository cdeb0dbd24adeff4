package logging

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		parsed, err := uuid.Parse(id)
		require.NoError(t, err, id)
		assert.Equal(t, uuid.Version(4), parsed.Version())
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestForRequest(t *testing.T) {
	var buf bytes.Buffer
	l, id := ForRequest(NewWithWriter(Config{Format: "json"}, &buf))
	l.Info("check")

	entry := decodeLine(t, &buf)
	assert.Equal(t, id, entry["request_id"])
}
