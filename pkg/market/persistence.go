package market

import (
	"context"
	"time"
)

// AuditSink persists each raw upstream payload for audit. Writes are best-effort:
// callers log failures and never fail the fetch because of them.
type AuditSink interface {
	RecordRaw(ctx context.Context, fetchedAt time.Time, payload any) (string, error)
}
