package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// blobRow is the single table used by the database backend: one row per
// well-known key, the serialized value stored whole.
type blobRow struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

func (blobRow) TableName() string { return "blobs" }

// GormBlob keeps blobs in a relational database. The public contract is
// unchanged from the other backends: whole-value load and save per key.
type GormBlob struct {
	db *gorm.DB
}

func NewGormBlob(db *gorm.DB) (*GormBlob, error) {
	if err := db.AutoMigrate(&blobRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate blobs table: %w", err)
	}
	return &GormBlob{db: db}, nil
}

// OpenSQLite opens (or creates) a sqlite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// OpenPostgres connects to a postgres database with the given DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func (g *GormBlob) Load(ctx context.Context, key string) ([]byte, error) {
	var row blobRow
	err := g.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to load blob %q: %w", key, err)
	}
	return row.Value, nil
}

func (g *GormBlob) Save(ctx context.Context, key string, value []byte) error {
	row := blobRow{Key: key, Value: value, UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save blob %q: %w", key, err)
	}
	return nil
}

func (g *GormBlob) Delete(ctx context.Context, key string) error {
	err := g.db.WithContext(ctx).Delete(&blobRow{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}

func (g *GormBlob) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
