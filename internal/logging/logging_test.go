package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"arpdeploy/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "defaults", cfg: config.DefaultConfig().Log, wantLevel: zapcore.WarnLevel},
		{name: "json debug", cfg: config.LogConfig{Level: "debug", Format: "json"}, wantLevel: zapcore.DebugLevel},
		{name: "upper case level", cfg: config.LogConfig{Level: "INFO", Format: "console"}, wantLevel: zapcore.InfoLevel},
		{name: "bad level", cfg: config.LogConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LogConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.log")

	logger, err := New(config.LogConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info("contract deployed", zap.String("step", "ARPToken"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"step":"ARPToken"`)
	assert.Contains(t, string(data), "contract deployed")
}

func TestInstall(t *testing.T) {
	before := zap.L()

	logger, cleanup, err := Install(config.LogConfig{Level: "error", Format: "console"})
	require.NoError(t, err)
	assert.Same(t, logger, zap.L())

	cleanup()
	assert.Same(t, before, zap.L())
}
