package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Named returns logger.Named(name). When logger is nil it returns a stderr
// logger at level if one was requested, else a null logger. A supplied logger
// keeps its own level.
func Named(logger hclog.Logger, name, level string) hclog.Logger {
	if logger != nil {
		return logger.Named(name)
	}

	if level == "" {
		return hclog.NewNullLogger()
	}

	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: os.Stderr,
	})
}
