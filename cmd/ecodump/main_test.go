package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jacentio/eco/internal/appenv"
)

func TestRun_ReturnsDumpError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	env := appenv.Env{Backend: appenv.BackendMemory}

	// An expired deadline fails the dump instead of exiting the process
	err := run(env, zap.New(core), 0, false)
	require.Error(t, err)

	entries := logs.FilterMessage("dump failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, appenv.BackendMemory, entries[0].ContextMap()["backend"])
}

func TestRun_EmptyTree(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	env := appenv.Env{Backend: appenv.BackendMemory}

	require.NoError(t, run(env, zap.New(core), time.Minute, false))
	assert.Equal(t, 1, logs.FilterMessage("no data found in tree").Len())
}
