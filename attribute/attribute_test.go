package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderRejectsNullAndEmptyKey(t *testing.T) {
	b := NewBuilder(DefaultCap)
	b.Put(KeyValue{Key: "", Value: StringValue("x")})
	b.Put(KeyValue{Key: "ok", Value: Value{}})
	b.Put(String("kept", "v"))

	s, dropped := b.Build()
	assert.Equal(t, 0, dropped, "null/empty-key entries are rejected, not counted as overflow drops")
	require.Equal(t, 1, s.Len())
	v, ok := s.Get("kept")
	require.True(t, ok)
	assert.Equal(t, "v", v.AsString())
}

func TestBuilderCapOverflowIsCountedNotAborted(t *testing.T) {
	b := NewBuilder(2)
	b.Put(String("a", "1"), String("b", "2"), String("c", "3"), String("d", "4"))

	s, dropped := b.Build()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, dropped)
}

func TestBuilderUpdateDoesNotCountAsDrop(t *testing.T) {
	b := NewBuilder(1)
	b.Put(String("a", "1"))
	b.Put(String("a", "2")) // update, not insert: must not overflow a cap=1 builder

	s, dropped := b.Build()
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 0, dropped)
	v, _ := s.Get("a")
	assert.Equal(t, "2", v.AsString())
}

func TestSetPreservesInsertionOrder(t *testing.T) {
	s := NewSet(String("z", "1"), String("a", "2"), String("m", "3"))
	var keys []string
	s.ForEach(func(kv KeyValue) { keys = append(keys, kv.Key) })
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}
