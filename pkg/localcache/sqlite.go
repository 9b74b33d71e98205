package localcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cacheRow struct {
	Table     string    `gorm:"column:tbl;primaryKey"`
	ID        string    `gorm:"column:id;primaryKey"`
	Index     string    `gorm:"column:idx;index:idx_cache_rows_tbl_idx"`
	Payload   []byte    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (cacheRow) TableName() string { return "cache_rows" }

// SQLiteStore persists every cached table in a single sqlite table of JSON
// payloads. Rows come back in first-insert order; an upsert keeps the
// position of the row it replaces.
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteStore prepares the cache schema on db.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("cache db required")
	}
	if err := db.AutoMigrate(&cacheRow{}); err != nil {
		return nil, fmt.Errorf("migrate cache schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, table, id string, dest any) (bool, error) {
	var row cacheRow
	err := s.db.WithContext(ctx).
		Where("tbl = ? AND id = ?", table, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s/%s: %w", table, id, err)
	}
	if err := json.Unmarshal(row.Payload, dest); err != nil {
		return false, fmt.Errorf("cache decode %s/%s: %w", table, id, err)
	}
	return true, nil
}

func (s *SQLiteStore) GetAllByIndex(ctx context.Context, table, index string, dest any) error {
	return s.load(s.db.WithContext(ctx).Where("tbl = ? AND idx = ?", table, index), table, dest)
}

func (s *SQLiteStore) All(ctx context.Context, table string, dest any) error {
	return s.load(s.db.WithContext(ctx).Where("tbl = ?", table), table, dest)
}

func (s *SQLiteStore) Upsert(ctx context.Context, table string, row Row) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("cache encode %s/%s: %w", table, row.EntityID(), err)
	}

	record := cacheRow{
		Table:     table,
		ID:        row.EntityID(),
		Index:     row.IndexKey(),
		Payload:   payload,
		UpdatedAt: s.now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tbl"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"idx", "payload", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("cache upsert %s/%s: %w", table, record.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, table, id string) error {
	err := s.db.WithContext(ctx).
		Where("tbl = ? AND id = ?", table, id).
		Delete(&cacheRow{}).Error
	if err != nil {
		return fmt.Errorf("cache delete %s/%s: %w", table, id, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteByIndex(ctx context.Context, table, index string) error {
	err := s.db.WithContext(ctx).
		Where("tbl = ? AND idx = ?", table, index).
		Delete(&cacheRow{}).Error
	if err != nil {
		return fmt.Errorf("cache delete %s index %s: %w", table, index, err)
	}
	return nil
}

func (s *SQLiteStore) load(tx *gorm.DB, table string, dest any) error {
	var payloads [][]byte
	if err := tx.Model(&cacheRow{}).Order("rowid").Pluck("payload", &payloads).Error; err != nil {
		return fmt.Errorf("cache list %s: %w", table, err)
	}

	// Stitch the stored documents into one JSON array so dest can be any slice type.
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(payloads)*128))
	buf.WriteByte('[')
	for i, p := range payloads {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(p)
	}
	buf.WriteByte(']')

	if err := json.Unmarshal(buf.Bytes(), dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", table, err)
	}
	return nil
}
