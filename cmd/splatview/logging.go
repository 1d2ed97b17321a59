package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mitchellh/go-homedir"
)

// newLogger returns a logger writing to path. The viewer owns the terminal,
// so without a path logs are dropped.
func newLogger(path string, debug bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log, f.Close, nil
}
