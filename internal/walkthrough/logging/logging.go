// logging.go — a zap-backed scoped logger. Grounded on the ambient logging
// convention in jordigilh-kubernaut (zap wrapped via zapr for logr
// consumers) and yungbote-neurobridge-backend (zap.Logger passed down
// through constructors). See SPEC_FULL.md §1.
package logging

import "go.uber.org/zap"

// New builds a production zap logger. Callers that need a no-op logger for
// tests should use zap.NewNop() directly rather than routing through here.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Scoped returns a child logger tagged with a sessionId, the way every
// subsystem in the coordinator should log so session-scoped issues can be
// filtered in aggregate log tooling.
func Scoped(base *zap.Logger, sessionID string) *zap.Logger {
	if sessionID == "" {
		return base
	}
	return base.With(zap.String("session_id", sessionID))
}
