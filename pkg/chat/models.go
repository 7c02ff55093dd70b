package chat

import (
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

type User struct {
	ID        string `gorm:"primarykey"`
	Username  string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Online    bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Channel struct {
	ID          string `gorm:"primarykey"`
	Name        string `gorm:"uniqueIndex;not null"`
	CreatedByID string `gorm:"not null"`
	CreatedAt   time.Time

	CreatedBy User            `gorm:"foreignKey:CreatedByID"`
	Members   []ChannelMember `gorm:"constraint:OnDelete:CASCADE"`
}

// ChannelMember is a row in the persisted membership set. Join order is
// preserved by the autoincrement ID for display purposes only.
type ChannelMember struct {
	ID        uint   `gorm:"primarykey"`
	ChannelID string `gorm:"uniqueIndex:idx_channel_user;not null"`
	UserID    string `gorm:"uniqueIndex:idx_channel_user;not null"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

// Message is immutable once created. Seq breaks timestamp ties so
// pagination stays stable.
type Message struct {
	ID        string    `gorm:"primarykey"`
	Seq       uint      `gorm:"autoIncrement;uniqueIndex"`
	ChannelID string    `gorm:"index:idx_channel_time;not null"`
	SenderID  string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_channel_time"`

	Sender User `gorm:"foreignKey:SenderID"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primarykey"`
	UserID    string `gorm:"not null"`
	TokenHash string `gorm:"not null"`
	ExpiresAt int64  `gorm:"not null"`
	CreatedAt time.Time
}

type AuditLog struct {
	ID          uint   `gorm:"primarykey"`
	Action      string `gorm:"not null"`
	ActorID     string `gorm:"not null"`
	ChannelID   *string
	Description string
	CreatedAt   time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID, err = nanoid.New(8)
	}
	return
}

func (c *Channel) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID, err = nanoid.New(6)
	}
	return
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID, err = nanoid.New(12)
	}
	return
}
