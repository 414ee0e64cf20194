// Package store persists enrolled speaker profiles. SQLiteStore models the
// "speakers" table informally described by the reference implementation
// (speaker_id primary key, a raw embedding BLOB plus its declared
// dimension, an enrollment counter, and created/updated timestamps) via
// gorm and the pure-Go glebarez/sqlite driver.
package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/aurakit/voiceprint-go/verrors"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Profile is a persisted speaker's enrollment state.
type Profile struct {
	ID          string
	Embedding   []float32
	EnrollCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is the persistence contract speaker.Manager depends on, kept
// narrow enough that a caller could substitute another backend.
type Store interface {
	Save(p Profile) error
	Load(id string) (Profile, bool, error)
	LoadAll() ([]Profile, error)
	Remove(id string) error
	Count() (int, error)
	Close() error
}

// speakerRow is the gorm model backing the "speakers" table.
type speakerRow struct {
	SpeakerID    string    `gorm:"column:speaker_id;primaryKey"`
	Embedding    []byte    `gorm:"column:embedding;not null"`
	EmbeddingDim int       `gorm:"column:embedding_dim;not null"`
	EnrollCount  int       `gorm:"column:enroll_count;default:1"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (speakerRow) TableName() string { return "speakers" }

// SQLiteStore is the default on-disk Store, backed by a pure-Go (cgo-free)
// SQLite driver in WAL mode with a busy timeout, matching the reference
// store's journaling configuration.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open creates/migrates the "speakers" table at dbPath and returns a ready
// SQLiteStore. A nil logger falls back to a no-op logger.
func Open(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w: %w", dbPath, verrors.ErrDBError, err)
	}

	if err := db.AutoMigrate(&speakerRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w: %w", verrors.ErrDBError, err)
	}

	logger.Info("speaker store opened", zap.String("path", dbPath))
	return &SQLiteStore{db: db, logger: logger.With(zap.String("component", "store"))}, nil
}

// Save inserts or replaces the row for p.ID, bumping UpdatedAt.
func (s *SQLiteStore) Save(p Profile) error {
	row := speakerRow{
		SpeakerID:    p.ID,
		Embedding:    encodeEmbedding(p.Embedding),
		EmbeddingDim: len(p.Embedding),
		EnrollCount:  p.EnrollCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	err := s.db.Save(&row).Error
	if err != nil {
		return fmt.Errorf("store: save %s: %w: %w", p.ID, verrors.ErrDBError, err)
	}
	s.logger.Debug("saved speaker", zap.String("id", p.ID), zap.Int("dim", row.EmbeddingDim), zap.Int("count", p.EnrollCount))
	return nil
}

// Load fetches the profile for id. ok is false (with a nil error) if no
// such speaker exists.
func (s *SQLiteStore) Load(id string) (Profile, bool, error) {
	var row speakerRow
	err := s.db.First(&row, "speaker_id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("store: load %s: %w", id, err)
	}
	return rowToProfile(row), true, nil
}

// LoadAll returns every persisted profile, used to warm the in-memory
// cache at manager startup.
func (s *SQLiteStore) LoadAll() ([]Profile, error) {
	var rows []speakerRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: load all: %w", err)
	}
	profiles := make([]Profile, len(rows))
	for i, r := range rows {
		profiles[i] = rowToProfile(r)
	}
	s.logger.Info("loaded speakers", zap.Int("count", len(profiles)))
	return profiles, nil
}

// Remove deletes the row for id. Returns gorm.ErrRecordNotFound-derived
// error information via a plain wrapped error if nothing was deleted.
func (s *SQLiteStore) Remove(id string) error {
	res := s.db.Delete(&speakerRow{}, "speaker_id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("store: remove %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: speaker not found: %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Count returns the number of persisted speakers.
func (s *SQLiteStore) Count() (int, error) {
	var count int64
	if err := s.db.Model(&speakerRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return int(count), nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return sqlDB.Close()
}

func rowToProfile(r speakerRow) Profile {
	return Profile{
		ID:          r.SpeakerID,
		Embedding:   decodeEmbedding(r.Embedding, r.EmbeddingDim),
		EnrollCount: r.EnrollCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte, dim int) []float32 {
	out := make([]float32, dim)
	for i := 0; i < dim && (i+1)*4 <= len(buf); i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
