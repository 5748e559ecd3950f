package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewWithConfig(t *testing.T) {
	l := NewWithConfig("root", log.DebugLevel, true, false, log.TextFormatter)
	assert.Equal(t, "root", l.GetPrefix())
	assert.Equal(t, log.DebugLevel, l.GetLevel())
}

func TestNewWithWriterFollowsGlobalLevel(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })
	log.SetLevel(log.WarnLevel)

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "server")
	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "server")
}
