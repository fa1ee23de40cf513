package id

import (
	"regexp"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Format(t *testing.T) {
	v := UUID()

	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	assert.Regexp(t, uuidRegex, v)
	assert.True(t, IsUUID(v))
}

func TestUUID_Unique(t *testing.T) {
	const n = 1000
	var mu sync.Mutex
	seen := make(map[string]struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := UUID()
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestSortable_Version(t *testing.T) {
	v := Sortable()
	parsed, err := uuid.Parse(v)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSortable_Ordered(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = Sortable()
	}
	assert.True(t, sort.StringsAreSorted(ids), "sortable ids should be generated in ascending order")
}

func TestShort(t *testing.T) {
	v := Short()
	assert.Len(t, v, 16)
	assert.Regexp(t, `^[0-9a-f]{16}$`, v)
	assert.False(t, IsUUID(v))
}
