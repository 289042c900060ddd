package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	r := New[string](nil)
	id1 := r.Create("a")
	id2 := r.Create("b")
	require.Equal(t, uint64(1), id1)
	require.Equal(t, uint64(2), id2)
	require.Equal(t, 2, r.Len())
}

func TestGetReturnsStoredValue(t *testing.T) {
	r := New[string](nil)
	id := r.Create("match-a")
	v, ok := r.Get(id)
	require.True(t, ok)
	require.Equal(t, "match-a", v)

	_, ok = r.Get(id + 1)
	require.False(t, ok)
}

func TestBindUserAndLookup(t *testing.T) {
	r := New[string](nil)
	id := r.Create("match-a")
	require.NoError(t, r.BindUser(100, id))

	v, gotID, ok := r.GetByUser(100)
	require.True(t, ok)
	require.Equal(t, id, gotID)
	require.Equal(t, "match-a", v)
}

func TestBindUserRejectsSecondMatchWhileBound(t *testing.T) {
	r := New[string](nil)
	id1 := r.Create("match-a")
	id2 := r.Create("match-b")
	require.NoError(t, r.BindUser(100, id1))
	require.ErrorIs(t, r.BindUser(100, id2), ErrAlreadyBound)
}

func TestBindUserRebindingSameMatchIsIdempotent(t *testing.T) {
	r := New[string](nil)
	id := r.Create("match-a")
	require.NoError(t, r.BindUser(100, id))
	require.NoError(t, r.BindUser(100, id))
}

func TestBindUserUnknownMatchFails(t *testing.T) {
	r := New[string](nil)
	require.ErrorIs(t, r.BindUser(100, 999), ErrNotFound)
}

func TestUnbindUserFreesTheSlot(t *testing.T) {
	r := New[string](nil)
	id1 := r.Create("match-a")
	id2 := r.Create("match-b")
	require.NoError(t, r.BindUser(100, id1))
	r.UnbindUser(100)
	require.NoError(t, r.BindUser(100, id2))
}

func TestBindGroupSameExclusionRules(t *testing.T) {
	r := New[string](nil)
	id1 := r.Create("match-a")
	id2 := r.Create("match-b")
	require.NoError(t, r.BindGroup(7, id1))
	require.ErrorIs(t, r.BindGroup(7, id2), ErrAlreadyBound)

	_, gotID, ok := r.GetByGroup(7)
	require.True(t, ok)
	require.Equal(t, id1, gotID)
}

func TestRemoveDropsMatchAndAllBindings(t *testing.T) {
	r := New[string](nil)
	id := r.Create("match-a")
	require.NoError(t, r.BindUser(100, id))
	require.NoError(t, r.BindGroup(7, id))

	r.Remove(id)

	require.Equal(t, 0, r.Len())
	_, ok := r.Get(id)
	require.False(t, ok)
	_, _, ok = r.GetByUser(100)
	require.False(t, ok)
	_, _, ok = r.GetByGroup(7)
	require.False(t, ok)
}

func TestUsersAndGroupsBindIndependently(t *testing.T) {
	r := New[string](nil)
	idA := r.Create("match-a")
	idB := r.Create("match-b")
	require.NoError(t, r.BindGroup(7, idA))
	require.NoError(t, r.BindUser(100, idB), "a user may bind to a different match than the group they're chatting in")
}
