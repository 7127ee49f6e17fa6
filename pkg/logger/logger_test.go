package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, Format: FormatJSON})

	log.With(Component("registry")).Info("student added",
		RollNo("S010"),
		Err(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "student added", entry["message"])
	assert.Equal(t, "registry", entry["component"])
	assert.Equal(t, "S010", entry["roll_no"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn, Format: FormatJSON})

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, Format: FormatText})

	log.Info("schema ready", CourseCode("MTH101"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "schema ready"))
	assert.True(t, strings.Contains(out, "course_code=MTH101"))
}

func TestContextRoundTrip(t *testing.T) {
	log := Nop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
