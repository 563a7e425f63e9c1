package models

import "time"

// MaxEntryTextLength is the longest response accepted, in characters.
const MaxEntryTextLength = 2000

// Entry is a user's response to the prompt of a date.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_entries_user_date_prompt,priority:1" json:"user_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_entries_user_date_prompt,priority:2;index" json:"date"`
	PromptID  uint      `gorm:"not null;uniqueIndex:idx_entries_user_date_prompt,priority:3" json:"prompt_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PhotoURL  *string   `gorm:"size:1024" json:"photo_url,omitempty"`
	OnTime    bool      `gorm:"not null" json:"on_time"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Prompt Prompt `gorm:"foreignKey:PromptID" json:"prompt,omitempty"`
}

// TableName specifies the table name for GORM
func (Entry) TableName() string {
	return "entries"
}
