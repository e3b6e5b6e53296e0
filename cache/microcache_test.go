package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMicrocacheHit(t *testing.T) {
	m := NewMicrocache(time.Minute)
	m.Set("k", "v")

	got, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestMicrocacheMiss(t *testing.T) {
	m := NewMicrocache(time.Minute)
	_, ok := m.Get("absent")
	assert.False(t, ok)
}

func TestMicrocacheExpiry(t *testing.T) {
	m := NewMicrocache(20 * time.Millisecond)
	m.Set("k", "v")

	time.Sleep(40 * time.Millisecond)
	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestMicrocacheZeroTTLDisables(t *testing.T) {
	m := NewMicrocache(0)
	m.Set("k", "v")
	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestMicrocacheConcurrentAccess(t *testing.T) {
	m := NewMicrocache(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				m.Set("shared", j)
				m.Get("shared")
			}
		}()
	}
	wg.Wait()

	_, ok := m.Get("shared")
	assert.True(t, ok)
}
