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
	for _, name := range []string{"b", "d", "f"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageRollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,over=150%")

	assert.True(t, m.Enabled("always", 1))
	assert.True(t, m.Enabled("over", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("canary", 0), "anonymous callers are excluded from partial rollouts")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	on := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			on++
		}
	}
	assert.InDelta(t, 250, on, 80)
}

func TestNewManager_SkipsMalformedPairs(t *testing.T) {
	m := NewManager(" Realtime = ON , broken, uploads=maybe, =on, empty= ")

	assert.Equal(t, map[string]string{"realtime": "on"}, m.Raw())
	assert.True(t, m.Enabled(Realtime, 9))
	assert.False(t, m.Enabled(Uploads, 9))
}

func TestSnapshot(t *testing.T) {
	m := NewManager("realtime=on,uploads=off")
	assert.Equal(t, map[string]bool{Realtime: true, Uploads: false}, m.Snapshot(3))
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(Realtime, 1))
}
