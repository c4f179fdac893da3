package generation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind of generated asset
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Status of a generation job
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Plan tiers stored on profiles.plan
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Generation is one generated image or video. AssetURL points at the object in
// the storage bucket; nil means the object has been removed (or never existed).
type Generation struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;index" json:"user_id"`
	Kind      Kind      `gorm:"column:kind" json:"kind"`
	Status    Status    `gorm:"column:status" json:"status"`
	Prompt    string    `gorm:"column:prompt" json:"prompt"`
	AssetURL  *string   `gorm:"column:asset_url" json:"asset_url"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Generation) TableName() string { return "generations" }

func (g *Generation) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// HasAsset reports whether the record still references a storage object.
func (g *Generation) HasAsset() bool {
	return g.AssetURL != nil && *g.AssetURL != ""
}

// Profile holds the account plan of a user.
type Profile struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Plan      string    `gorm:"column:plan" json:"plan"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
