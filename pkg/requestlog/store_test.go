package requestlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_LogAssignsIDAndTimestamp(t *testing.T) {
	s := NewInMemoryStore(10)
	e := &Entry{Method: "GET", Path: "/a"}
	s.Log(e)
	s.Log(nil)

	assert.Equal(t, "req-1", e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, 1, s.Count())
	assert.Same(t, e, s.Get("req-1"))
	assert.Nil(t, s.Get("req-99"))
}

func TestInMemoryStore_EvictsOldest(t *testing.T) {
	s := NewInMemoryStore(3)
	for i := 0; i < 5; i++ {
		s.Log(&Entry{Path: fmt.Sprintf("/%d", i)})
	}

	list := s.List(nil)
	require.Len(t, list, 3)
	assert.Equal(t, "/4", list[0].Path, "newest first")
	assert.Equal(t, "/2", list[2].Path)
}

func TestInMemoryStore_ListFilter(t *testing.T) {
	s := NewInMemoryStore(0)
	s.Log(&Entry{Method: "GET", Path: "/users/1", Matched: true, MatchedRuleID: "r1"})
	s.Log(&Entry{Method: "POST", Path: "/users", Matched: true, MatchedRuleID: "r2"})
	s.Log(&Entry{Method: "GET", Path: "/orders", Matched: false})

	assert.Len(t, s.List(&Filter{Method: "get"}), 2)
	assert.Len(t, s.List(&Filter{Path: "/users"}), 2)
	assert.Len(t, s.List(&Filter{RuleID: "r2"}), 1)

	unmatched := false
	list := s.List(&Filter{Matched: &unmatched})
	require.Len(t, list, 1)
	assert.Equal(t, "/orders", list[0].Path)

	paged := s.List(&Filter{Offset: 1, Limit: 1})
	require.Len(t, paged, 1)
	assert.Equal(t, "/users", paged[0].Path)

	assert.Empty(t, s.List(&Filter{Offset: 10}))
}

func TestInMemoryStore_Clear(t *testing.T) {
	s := NewInMemoryStore(5)
	s.Log(&Entry{})
	s.Log(&Entry{})
	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List(nil))
}
