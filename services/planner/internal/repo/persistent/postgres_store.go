package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps each kind as a row of planner_collections. The table is
// created by the goose migrations in cmd/migrate.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, kind entity.Kind) ([]byte, bool, error) {
	var row model.CollectionModel
	err := s.db.WithContext(ctx).Where("kind = ?", string(kind)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s collection: %w", kind, err)
	}
	return []byte(row.Data), true, nil
}

func (s *PostgresStore) Save(ctx context.Context, kind entity.Kind, data []byte) error {
	return upsertCollection(s.db.WithContext(ctx), kind, data)
}

// Mutate serialises writers of one kind across processes. The advisory lock
// covers kinds whose row does not exist yet; FOR UPDATE pins the row itself.
func (s *PostgresStore) Mutate(ctx context.Context, kind entity.Kind, fn MutateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", string(kind)).Error; err != nil {
			return fmt.Errorf("failed to lock %s collection: %w", kind, err)
		}

		var row model.CollectionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("kind = ?", string(kind)).
			First(&row).Error
		exists := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
		} else if err != nil {
			return fmt.Errorf("failed to load %s collection: %w", kind, err)
		}

		var current []byte
		if exists {
			current = []byte(row.Data)
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return upsertCollection(tx, kind, next)
	})
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsertCollection(db *gorm.DB, kind entity.Kind, data []byte) error {
	row := model.CollectionModel{
		Kind:      string(kind),
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save %s collection: %w", kind, err)
	}
	return nil
}
