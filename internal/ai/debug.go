package ai

import "sync/atomic"

// debugLoggingEnabled gates the hot tick path's debug logging so computing
// the log fields costs nothing when debug logging is off.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging turns debug logging on or off for the AI subsystem.
// Called once from main after parsing config.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether debug logging is enabled. Guard expensive
// debug log calls with it:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("retarget candidates", "count", len(candidates))
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
