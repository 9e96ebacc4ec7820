package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/district-stress-dashboard/internal/config"
)

// NewLogger builds a slog logger from LOG_LEVEL and LOG_FORMAT and installs
// it as the default.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}
