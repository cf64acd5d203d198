package store

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/grandvalle/fieldscout-go/internal/conf"
	"github.com/grandvalle/fieldscout-go/internal/errors"
)

// kvEntry is the gorm model backing the key-value table.
type kvEntry struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLiteStore is the production store backed by a local SQLite file.
type SQLiteStore struct {
	Settings *conf.Settings
	DB       *gorm.DB
}

// NewSQLite creates an unopened store for the configured database path.
func NewSQLite(settings *conf.Settings) *SQLiteStore {
	return &SQLiteStore{Settings: settings}
}

func validateSQLitePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.Newf("sqlite database path is not set").
			Component("store").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open creates the database file and schema when missing and connects.
func (s *SQLiteStore) Open() error {
	path := s.Settings.Output.SQLite.Path
	if err := validateSQLitePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("store").
				Category(errors.CategoryDatabase).
				Context("path", dir).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	s.DB = db
	serviceLogger().Info("sqlite store opened", "path", path)
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *SQLiteStore) Get(key string) (string, error) {
	var entry kvEntry
	err := s.DB.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.New(ErrKeyNotFound).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	if err != nil {
		return "", errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return entry.Value, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(key, value string) error {
	err := s.DB.Save(&kvEntry{Key: key, Value: value}).Error
	if err != nil {
		return errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(key string) error {
	err := s.DB.Delete(&kvEntry{}, "key = ?", key).Error
	if err != nil {
		return errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return nil
}

// Keys returns all stored keys with the given prefix, sorted.
func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	var keys []string
	q := s.DB.Model(&kvEntry{}).Order("key")
	if prefix != "" {
		q = q.Where("key LIKE ?", prefix+"%")
	}
	if err := q.Pluck("key", &keys).Error; err != nil {
		return nil, errors.New(err).
			Component("store").
			Category(errors.CategoryDatabase).
			Context("prefix", prefix).
			Build()
	}
	return keys, nil
}
