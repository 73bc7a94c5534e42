package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"metasearch/engine"
)

func TestRegistryCounts(t *testing.T) {
	r := NewRegistry()

	r.RecordSuccess("mojeek", 10, 120*time.Millisecond)
	r.RecordSuccess("mojeek", 5, 80*time.Millisecond)
	r.RecordError("mojeek", engine.KindTimeout, 4*time.Second)
	r.RecordError("searxng", engine.KindParse, time.Second)

	snap := r.Snapshot()

	assert.Equal(t, 3, snap["mojeek"].Searches)
	assert.Equal(t, 15, snap["mojeek"].Results)
	assert.Equal(t, 1, snap["mojeek"].Errors[engine.KindTimeout])
	assert.Equal(t, 200*time.Millisecond+4*time.Second, snap["mojeek"].Elapsed)
	assert.Equal(t, 1, snap["searxng"].Errors[engine.KindParse])
}

func TestSnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.RecordError("e", engine.KindBlocked, 0)

	snap := r.Snapshot()
	snap["e"].Errors[engine.KindBlocked] = 99

	assert.Equal(t, 1, r.Snapshot()["e"].Errors[engine.KindBlocked])
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.RecordSuccess("e", 1, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, r.Snapshot()["e"].Searches)
}
