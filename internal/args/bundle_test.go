package args

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_GetString(t *testing.T) {
	b := FromMap(map[string]string{"a": "1"})

	assert.Equal(t, "1", b.GetString("a", "default"))
	assert.Equal(t, "default", b.GetString("missing", "default"))
}

func TestBundle_KeysSorted(t *testing.T) {
	b := New()
	b.Set("zebra", "z")
	b.Set("apple", "a")
	b.Set("mango", "m")

	assert.Equal(t, []string{"apple", "mango", "zebra"}, b.Keys())
	assert.Equal(t, 3, b.Len())
}

func TestBundle_Equal(t *testing.T) {
	a := FromMap(map[string]string{"x": "1", "y": "2"})
	b := New()
	b.Set("y", "2")
	b.Set("x", "1")

	assert.True(t, a.Equal(b), "insertion order must not matter")

	b.Set("y", "3")
	assert.False(t, a.Equal(b))

	b.Set("y", "2")
	b.Set("z", "")
	assert.False(t, a.Equal(b), "extra key must not compare equal")
}

func TestBundle_CloneIsIndependent(t *testing.T) {
	a := FromMap(map[string]string{"x": "1"})
	c := a.Clone()
	c.Set("x", "2")

	assert.Equal(t, "1", a.GetString("x", ""))
}

func TestOverride_MergesWithoutTouchingOtherKeys(t *testing.T) {
	b := FromMap(map[string]string{"keep": "k", "replace": "old"})

	tok := b.Override([]Pair{
		{Key: "replace", Value: "new"},
		{Key: "added", Value: "a"},
	})
	require.NotNil(t, tok)

	assert.Equal(t, "k", b.GetString("keep", ""))
	assert.Equal(t, "new", b.GetString("replace", ""))
	assert.Equal(t, "a", b.GetString("added", ""))
}

func TestOverride_LastDuplicateWins(t *testing.T) {
	b := New()
	b.Override([]Pair{{Key: "k", Value: "1"}, {Key: "k", Value: "2"}})

	assert.Equal(t, "2", b.GetString("k", ""))
}

func TestRestore_ReproducesPriorState(t *testing.T) {
	b := FromMap(map[string]string{"keep": "k", "replace": "old"})
	before := b.Clone()

	tok := b.Override([]Pair{
		{Key: "replace", Value: "new"},
		{Key: "added", Value: "a"},
	})
	b.Set("written-by-journey", "x")
	b.Delete("keep")

	require.NoError(t, b.Restore(tok))
	assert.True(t, before.Equal(b), "restore must reproduce the exact prior pairs, got %v", b.Map())
	assert.True(t, tok.Restored())
}

func TestRestore_OnlyOnce(t *testing.T) {
	b := New()
	tok := b.Override([]Pair{{Key: "k", Value: "v"}})
	require.NoError(t, b.Restore(tok))

	b.Set("after", "restore")
	err := b.Restore(tok)
	assert.ErrorIs(t, err, ErrTokenRestored)
	assert.Equal(t, "restore", b.GetString("after", ""), "second restore must not change the bundle")
}

func TestRestore_ForeignToken(t *testing.T) {
	a := New()
	b := New()
	tok := a.Override(nil)

	assert.ErrorIs(t, b.Restore(tok), ErrForeignToken)
	assert.ErrorIs(t, b.Restore(nil), ErrForeignToken)
	assert.False(t, tok.Restored())
}

func TestScoped_RestoresOnError(t *testing.T) {
	b := FromMap(map[string]string{"k": "before"})
	boom := errors.New("boom")

	err := b.Scoped([]Pair{{Key: "k", Value: "during"}}, func() error {
		assert.Equal(t, "during", b.GetString("k", ""))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "before", b.GetString("k", ""))
}

func TestScoped_RestoresOnPanic(t *testing.T) {
	b := FromMap(map[string]string{"k": "before"})

	assert.Panics(t, func() {
		_ = b.Scoped([]Pair{{Key: "k", Value: "during"}}, func() error {
			panic("journey blew up")
		})
	})
	assert.Equal(t, "before", b.GetString("k", ""))
}
