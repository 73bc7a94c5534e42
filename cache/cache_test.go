package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
}

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, time.Hour)
	key := Key("cats", "web", 1)

	require.NoError(t, s.Put(key, payload{Query: "cats", Results: []string{"a", "b"}}))

	var got payload
	hit, err := s.Get(key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "cats", got.Query)
	assert.Equal(t, []string{"a", "b"}, got.Results)
}

func TestGetMiss(t *testing.T) {
	s := openTestStore(t, time.Hour)

	var got payload
	hit, err := s.Get(Key("dogs", "web", 1), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestExpiredEntryIsMiss(t *testing.T) {
	s := openTestStore(t, time.Hour)
	key := Key("cats", "web", 1)
	require.NoError(t, s.Put(key, payload{Query: "cats"}))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	var got payload
	hit, err := s.Get(key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGCRemovesExpired(t *testing.T) {
	s := openTestStore(t, time.Hour)
	require.NoError(t, s.Put(Key("old", "web", 1), payload{Query: "old"}))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, s.Put(Key("fresh", "web", 1), payload{Query: "fresh"}))
	require.NoError(t, s.GC())

	var got payload
	hit, err := s.Get(Key("fresh", "web", 1), &got)
	require.NoError(t, err)
	assert.True(t, hit)

	// The old entry is gone even if the clock is rolled back.
	s.now = time.Now
	hit, err = s.Get(Key("old", "web", 1), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestKeyDistinguishesModeAndPage(t *testing.T) {
	assert.NotEqual(t, Key("cats", "web", 1), Key("cats", "images", 1))
	assert.NotEqual(t, Key("cats", "web", 1), Key("cats", "web", 2))
	assert.Equal(t, Key("cats", "web", 1), Key("cats", "web", 1))
}
