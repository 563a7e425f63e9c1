// Package prompt chooses the prompt of the day, either from a fixed catalog
// or from a text generation service with the catalog as fallback.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dailybright/internal/models"

	"gopkg.in/yaml.v3"
)

// Style tags carried by catalog entries.
const (
	StyleSimple     = "simple"
	StyleCreative   = "creative"
	StyleFun        = "fun"
	StyleGaming     = "gaming"
	StyleThoughtful = "thoughtful"
)

// Entry is one catalog prompt with its style tags.
type Entry struct {
	Text string   `yaml:"text" json:"text"`
	Tags []string `yaml:"tags" json:"tags"`
}

// Catalog is an ordered, non-empty list of prompts. Order is part of its
// contract: ForDate indexes into it.
type Catalog struct {
	entries []Entry
}

var defaultEntries = []Entry{
	{Text: "What are you grateful for today? Share something that brought you joy or made you smile.", Tags: []string{StyleSimple}},
	{Text: "In exactly 5 words, describe your day's emotional soundtrack 🎵", Tags: []string{StyleCreative}},
	{Text: "If your day was a color, what would it be and why?", Tags: []string{StyleCreative}},
	{Text: "What superpower did you accidentally use today without realizing it?", Tags: []string{StyleFun}},
	{Text: "Rate your day like a video game: What was your biggest XP gain?", Tags: []string{StyleGaming}},
	{Text: "If today was a movie genre, what would it be called?", Tags: []string{StyleCreative}},
	{Text: "What invisible thing deserves a thank-you note from you today?", Tags: []string{StyleThoughtful}},
	{Text: "Your day as a weather forecast: What was the emotional climate? ⛅", Tags: []string{StyleCreative}},
	{Text: "If you could time-travel and high-five your past self, when would it be?", Tags: []string{StyleFun}},
	{Text: "What secret ingredient made today better than yesterday?", Tags: []string{StyleThoughtful}},
	{Text: "Rate your day's plot twists from 1-10. What was the best one?", Tags: []string{StyleFun}},
	{Text: "If your gratitude had a flavor today, what would you taste?", Tags: []string{StyleCreative}},
	{Text: "What background character in your life deserves the spotlight today?", Tags: []string{StyleThoughtful}},
	{Text: "Your day's energy level: solar panel or dead battery? Why?", Tags: []string{StyleFun}},
	{Text: "If today was a song, what would be its title and genre?", Tags: []string{StyleCreative}},
	{Text: "What tiny miracle went completely unnoticed by everyone else today?", Tags: []string{StyleThoughtful}},
	{Text: "In 3 words, describe what your future self would thank you for", Tags: []string{StyleSimple}},
	{Text: "What invisible force field protected your mood today? 🛡️", Tags: []string{StyleFun}},
	{Text: "If your day was a text message, what emoji combo would it be?", Tags: []string{StyleCreative}},
	{Text: "What ordinary thing became extraordinary for exactly 30 seconds today?", Tags: []string{StyleThoughtful}},
	{Text: "Rate today's surprise level: predictable sitcom or plot-twist thriller?", Tags: []string{StyleFun}},
}

// DefaultCatalog returns the built-in 21-prompt catalog.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(defaultEntries)
	return c
}

// NewCatalog copies entries into a catalog. Blank entries are rejected.
func NewCatalog(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("prompt catalog is empty")
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			return nil, fmt.Errorf("prompt catalog entry %d has no text", i)
		}
		out[i] = Entry{Text: text, Tags: append([]string(nil), e.Tags...)}
	}
	return &Catalog{entries: out}, nil
}

type catalogFile struct {
	Prompts []Entry `yaml:"prompts"`
}

// LoadCatalogFile reads a YAML catalog of the form:
//
//	prompts:
//	  - text: "..."
//	    tags: [creative]
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse prompt catalog %s: %w", path, err)
	}
	return NewCatalog(file.Prompts)
}

// Len returns the number of prompts.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the catalog in order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// IndexFor returns the catalog position used on d: day of year modulo the
// catalog size. Only d's calendar date matters.
func (c *Catalog) IndexFor(d time.Time) int {
	return d.YearDay() % len(c.entries)
}

// ForDate returns the catalog entry for d.
func (c *Catalog) ForDate(d time.Time) Entry {
	return c.entries[c.IndexFor(d)]
}

// SeedTags returns the tags a catalog entry is stored with.
func (e Entry) SeedTags() models.StringSet {
	return models.NewStringSet(append([]string{models.TagDaily, models.TagSeed}, e.Tags...)...)
}
