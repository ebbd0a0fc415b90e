package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/phrasereport/internal/aggregator"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.WarnLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace-everything")
	assert.Error(t, err)
}

func TestNewStampsRunID(t *testing.T) {
	buf := &bytes.Buffer{}
	runID := NewRunID()
	_, err := uuid.Parse(runID)
	require.NoError(t, err)

	logger, err := New(buf, "info", runID)
	require.NoError(t, err)
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, runID, line["run_id"])
	assert.Equal(t, "hello", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "id")
	assert.Error(t, err)
}

func TestRecordListener(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(buf, "debug", "id")
	require.NoError(t, err)
	ctx := WithLogger(context.Background(), logger)

	RecordListener(ctx).OnRecord("checkout flow", aggregator.PhraseExecutionRecord{
		Index:   1,
		Body:    "when user pays",
		Outcome: aggregator.OutcomeFailed,
		Reason:  "payment gateway timeout",
	})

	out := buf.String()
	assert.Contains(t, out, `"outcome":"EXECUTED_FAIL"`)
	assert.Contains(t, out, `"reason":"payment gateway timeout"`)
	assert.Contains(t, out, `"test_case":"checkout flow"`)
}
