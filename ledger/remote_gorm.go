package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypal/points-api/models"
)

// GormStore is the authoritative RemoteStore on a relational database.
// SetUser locks the ledger row for the duration of the transaction so
// concurrent writers from other processes cannot interleave a partial
// field update.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized gorm DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (*models.UserLedger, error) {
	var l models.UserLedger
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// SetUser applies a partial overwrite of the aggregate record, creating the
// ledger row on first write (ledgers come into existence on first award).
func (s *GormStore) SetUser(ctx context.Context, userID string, fields UserFields) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite rejects FOR UPDATE and is single-writer anyway.
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var l models.UserLedger
		err := q.Where("user_id = ?", userID).First(&l).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l = models.UserLedger{UserID: userID, Level: 1}
			if err := tx.Create(&l).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Model(&l).Updates(map[string]interface{}(fields)).Error
	})
}

func (s *GormStore) AppendHistory(ctx context.Context, rec *models.PointRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) QueryHistory(ctx context.Context, userID string, limit int) ([]models.PointRecord, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []models.PointRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
