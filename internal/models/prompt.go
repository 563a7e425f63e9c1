package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Prompt provenance and style tags.
const (
	TagDaily         = "daily"
	TagSeed          = "seed"
	TagGenerated     = "generated"
	TagAI            = "ai"
	TagAdminOverride = "admin-override"
)

// StringSet is a set of tags persisted as a comma-joined column so the same
// model works on postgres and sqlite.
type StringSet []string

// NewStringSet builds a normalized set: trimmed, lower-cased, unique, sorted.
func NewStringSet(values ...string) StringSet {
	seen := make(map[string]struct{}, len(values))
	out := make(StringSet, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || strings.Contains(v, ",") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Has reports whether tag is in the set.
func (s StringSet) Has(tag string) bool {
	for _, v := range s {
		if v == tag {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (s StringSet) Value() (driver.Value, error) {
	return strings.Join(NewStringSet(s...), ","), nil
}

// Scan implements sql.Scanner.
func (s *StringSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = StringSet{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSet", src)
	}
	if raw == "" {
		*s = StringSet{}
		return nil
	}
	*s = NewStringSet(strings.Split(raw, ",")...)
	return nil
}

// Prompt is a question-of-the-day. Rows are append-only.
type Prompt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Tags      StringSet `gorm:"type:text;not null;default:''" json:"tags"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Prompt) TableName() string {
	return "prompts"
}
