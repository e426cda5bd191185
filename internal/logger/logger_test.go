package logger

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/identity"
)

func TestBuild_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"chatty", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := Build(config.Observability{LogLevel: tt.level, LogEncoding: "json"})
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestBuild_Console(t *testing.T) {
	l, err := Build(config.Observability{LogLevel: "info", LogEncoding: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestFor_AddsPrincipal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := identity.WithPrincipal(context.Background(), "alice")

	For(ctx, zap.New(core)).Info("checkout completed")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "alice", logs.All()[0].ContextMap()["principal"])
}

func TestIgnoreTTYSync(t *testing.T) {
	assert.NoError(t, ignoreTTYSync(syscall.EINVAL))
	assert.NoError(t, ignoreTTYSync(nil))
	assert.ErrorIs(t, ignoreTTYSync(syscall.EIO), syscall.EIO)
}

func TestModule_ProvidesLogger(t *testing.T) {
	var l *zap.Logger
	app := fxtest.New(t,
		fx.Supply(config.Config{Observability: config.Observability{LogLevel: "error", LogEncoding: "json"}}),
		Module,
		FxLogger(),
		fx.Populate(&l),
	)
	app.RequireStart()
	app.RequireStop()
	assert.NotNil(t, l)
}
