package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"scoreboard/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var activeWriter atomic.Value

// Init configures the global zerolog logger. Safe to call once at startup.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		if fw, err := newCappedFileWriter(cfg.File, cfg.MaxMB); err == nil {
			output = fw
		}
	}
	activeWriter.Store(output)
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the destination Init selected, for handlers that log
// outside zerolog (request logging). Defaults to stdout before Init.
func Writer() io.Writer {
	if w, ok := activeWriter.Load().(io.Writer); ok {
		return w
	}
	return os.Stdout
}
