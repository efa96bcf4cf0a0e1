package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, false)
		l.Debug("iteration", "deviance", 1.5)
		l.Info("fit complete")
		assert.Empty(t, buf.String())

		l.Warn("slow", "iterations", 99)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "iterations=99")
	})

	t.Run("verbose", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, true)
		l.Debug("iteration", "deviance", 1.5)
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "msg=iteration")
		assert.Contains(t, buf.String(), "deviance=1.5")
		assert.Regexp(t, `time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`, buf.String())
	})
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.NotNil(t, l)
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
