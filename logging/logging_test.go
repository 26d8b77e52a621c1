package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLocalLoggerEnablesDebug(t *testing.T) {
	l, err := New("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewDevelopmentLoggerStartsAtInfo(t *testing.T) {
	l, err := New("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewProductionLoggerStartsAtInfo(t *testing.T) {
	l, err := New("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewUnknownEnvironment(t *testing.T) {
	_, err := New("staging-ish")
	assert.Error(t, err)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "***", Code("abc"))
	assert.Equal(t, "abcdef***", Code("abcdefghijkl"))
}
