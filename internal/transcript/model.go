package transcript

import (
	"time"

	"gorm.io/gorm"

	"github.com/sentinel-voice/sentinel/internal/shared"
)

const (
	SourceStream = "stream"
	SourceBatch  = "batch"
)

type Transcript struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	SessionID   string  `gorm:"index" json:"session_id,omitempty"`
	Source      string  `gorm:"index;not null" json:"source"`
	Text        string  `gorm:"not null" json:"text"`
	SampleRate  int     `json:"sample_rate"`
	Channels    int     `json:"channels"`
	DurationSec float64 `json:"duration_sec,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *Transcript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = shared.NewID("tr_")
	}
	return nil
}
