package rules

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// StartReloader polls the backing file and reloads the table when its
// modification time changes. Reload failures keep the active snapshot.
func (t *Table) StartReloader(ctx context.Context, interval time.Duration) {
	if t.path == "" {
		return
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(t.path)
				if err != nil {
					continue
				}
				if info.ModTime().UnixNano() == t.modTime.Load() {
					continue
				}
				if err := t.Reload(); err != nil {
					log.Error().Err(err).Str("path", t.path).Msg("rule reload failed; keeping active version")
					continue
				}
				snap := t.Active()
				log.Info().Int64("version", snap.Version).Int("rules", snap.Len()).Msg("rule table reloaded")
			}
		}
	}()
}
