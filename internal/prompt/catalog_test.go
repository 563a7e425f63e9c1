package prompt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Equal(t, 21, c.Len())
	assert.Equal(t, "What are you grateful for today? Share something that brought you joy or made you smile.", c.Entries()[0].Text)

	for i, e := range c.Entries() {
		assert.NotEmpty(t, e.Text, "entry %d", i)
		assert.NotEmpty(t, e.Tags, "entry %d", i)
	}
}

func TestCatalog_ForDate(t *testing.T) {
	c := DefaultCatalog()

	// 2026-04-01 is day 91 of the year.
	d := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
	require.Equal(t, 91, d.YearDay())
	assert.Equal(t, 7, c.IndexFor(d))
	assert.Equal(t, c.Entries()[7], c.ForDate(d))

	// Repeated calls on one date agree, whatever the time of day.
	assert.Equal(t, c.ForDate(d), c.ForDate(d.Add(8*time.Hour)))

	tests := []struct {
		name string
		a, b time.Time
		same bool
	}{
		{"21 days apart", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC), true},
		{"consecutive days", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), false},
		{"same day of year across years", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sameIndex := tt.a.YearDay()%21 == tt.b.YearDay()%21
			require.Equal(t, tt.same, sameIndex)
			assert.Equal(t, tt.same, c.IndexFor(tt.a) == c.IndexFor(tt.b))
		})
	}
}

func TestEntry_SeedTags(t *testing.T) {
	tags := Entry{Text: "x", Tags: []string{StyleFun}}.SeedTags()
	assert.Equal(t, []string{"daily", "fun", "seed"}, []string(tags))
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)

	_, err = NewCatalog([]Entry{{Text: "  "}})
	assert.Error(t, err)
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(`prompts:
  - text: "First prompt"
    tags: [simple]
  - text: "Second prompt"
    tags: [fun, creative]
`), 0o600))

	c, err := LoadCatalogFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "Second prompt", c.Entries()[1].Text)
	assert.Equal(t, []string{"fun", "creative"}, c.Entries()[1].Tags)

	_, err = LoadCatalogFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("prompts: [\n"), 0o600))
	_, err = LoadCatalogFile(bad)
	assert.Error(t, err)
}
