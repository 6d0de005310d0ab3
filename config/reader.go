package config

import (
	"bytes"
	"context"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/haptics/logging"
)

// Read reads a config from the given file. Environment variables in the file are expanded first,
// and the file may use JSON5 syntax such as comments and trailing commas. Fields left out keep their
// defaults.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debugw("read config", "path", originalPath, "device", cfg.Device.Model, "source", cfg.Telemetry.Source)
	return cfg, nil
}

// NewLogger builds the daemon logger described by l.
func (l Log) NewLogger(name string) (logging.Logger, error) {
	level, err := logging.LevelFromString(l.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(name)
	logger.SetLevel(level)
	if l.File != "" {
		appender, err := logging.NewFileAppender(l.File, l.MaxSizeMB)
		if err != nil {
			return nil, err
		}
		logger.AddAppender(appender)
	}
	return logger, nil
}
