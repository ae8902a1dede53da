// Package logging builds the zap logger that backs the wizard's error
// reporting. Log lines land in .cyclewiz/logs/cyclewiz.log so users can
// inspect failures after the TUI exits; verbose mode mirrors them to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/webstepper/cyclewiz/internal/config"
)

const logFileName = "cyclewiz.log"

// New creates (or reuses) the log file for the current project directory and
// returns a logger writing to it. The returned close func flushes buffered
// entries and releases the file handle.
func New(projectDir string, verbose bool) (*zap.Logger, func(), error) {
	logDir := filepath.Join(projectDir, config.CyclewizDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)

	core := fileCore
	if verbose {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stderr), zapcore.DebugLevel)
		core = zapcore.NewTee(fileCore, consoleCore)
	}

	logger := zap.New(core)
	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}
