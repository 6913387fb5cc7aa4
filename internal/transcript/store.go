package transcript

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sentinel-voice/sentinel/internal/shared"
)

// Store persists final transcripts. A nil Store is valid and drops every
// call; the service runs without history when no database is configured.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if s == nil {
		return nil
	}
	return s.db.AutoMigrate(&Transcript{})
}

func (s *Store) Create(ctx context.Context, t *Transcript) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Transcript, error) {
	if s == nil {
		return nil, shared.ErrNotFound
	}
	var t Transcript
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Transcript, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Transcript
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *Store) CountBySource(ctx context.Context, source string) (int64, error) {
	if s == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).
		Model(&Transcript{}).
		Where("source = ?", source).
		Count(&n).Error
	return n, err
}
