// Package logging builds the client's zap logger.
//
// Console output goes to stderr and stays quiet unless verbose is requested.
// Verbose runs additionally append JSON entries to <stateDir>/logs/blockopt.log
// so a failed run can be inspected after the fact.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFileName = "blockopt.log"

// New builds the process logger. stateDir may be empty, in which case no file
// sink is attached even in verbose mode.
func New(stateDir string, verbose bool) (*zap.Logger, error) {
	consoleLevel := zapcore.WarnLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			consoleLevel,
		),
	}

	if verbose && stateDir != "" {
		file, err := openLogFile(stateDir)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(file),
			zapcore.DebugLevel,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func openLogFile(stateDir string) (*os.File, error) {
	dir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("logging: create %s: %w", dir, err)
	}
	file, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return file, nil
}
