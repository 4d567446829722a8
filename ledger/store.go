package ledger

import (
	"context"
	"errors"

	"github.com/studypal/points-api/models"
)

// ErrNotFound is returned by RemoteStore.GetUser for users without a ledger
// row. The service treats it like any other remote failure for reads: the
// mirror answers instead.
var ErrNotFound = errors.New("ledger: user not found")

// UserFields is a partial overwrite of the aggregate record. Keys are the
// column names points, level, streak, longest_streak, last_check_in_day.
type UserFields map[string]interface{}

// RemoteStore is the authoritative backend. Every call crosses the network
// and may fail; callers must be prepared to degrade to the mirror.
type RemoteStore interface {
	GetUser(ctx context.Context, userID string) (*models.UserLedger, error)
	SetUser(ctx context.Context, userID string, fields UserFields) error
	AppendHistory(ctx context.Context, rec *models.PointRecord) error
	QueryHistory(ctx context.Context, userID string, limit int) ([]models.PointRecord, error)
}

// KV is localStorage-shaped string storage: synchronous, and reads never
// fail. A backend error reads as absent and writes are best-effort.
type KV interface {
	GetString(key string) (string, bool)
	SetString(key, value string)
}
