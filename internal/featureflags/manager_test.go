package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires non-zero userID")

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.False(t, m.Enabled(OnTimeWindow, 7))
	assert.True(t, m.Enabled(FriendsFeed, 7))

	m = NewManager("ON_TIME_WINDOW=on")
	assert.True(t, m.Enabled(OnTimeWindow, 7))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["y"])
	assert.Equal(t, "off", raw["z"])
	assert.NotContains(t, raw, "bad")

	snap := m.Snapshot(10)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
	assert.Contains(t, snap, OnTimeWindow)
	assert.Equal(t, m.Names(), []string{FriendsFeed, OnTimeWindow, "x", "y", "z"})
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled("x", 1))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
}
