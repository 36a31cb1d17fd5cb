package service

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/logger"
)

func makeItems(names ...string) []domain.MediaItem {
	items := make([]domain.MediaItem, len(names))
	for i, n := range names {
		items[i] = domain.MediaItem{ID: n, URI: "/media/" + n + ".mkv", Title: n}
	}
	return items
}

func newTestPlaylist(t *testing.T, names ...string) *PlaylistManager {
	t.Helper()
	p := NewPlaylistManager(logger.NewTestLogger(), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, p.Append(makeItems(names...)...))
	return p
}

func currentID(t *testing.T, p *PlaylistManager) string {
	t.Helper()
	item, ok := p.Current()
	require.True(t, ok)
	return item.ID
}

func TestPlaylist_EmptyHasNoCursor(t *testing.T) {
	p := NewPlaylistManager(logger.NewTestLogger(), nil)

	_, ok := p.Current()
	assert.False(t, ok)
	assert.Equal(t, domain.NoIndex, p.CurrentIndex())

	_, ok = p.Advance(domain.AdvanceEndOfStream)
	assert.False(t, ok)

	_, err := p.Next()
	assert.ErrorIs(t, err, domain.ErrPlaylistEmpty)
}

func TestPlaylist_AppendSetsCursorOnFirstItem(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")
	assert.Equal(t, 0, p.CurrentIndex())
	assert.Equal(t, "a", currentID(t, p))

	require.NoError(t, p.Append(makeItems("c")...))
	assert.Equal(t, "a", currentID(t, p), "append does not move the cursor")
	assert.Equal(t, 3, p.Len())
}

func TestPlaylist_AppendRejectsMissingURI(t *testing.T) {
	p := newTestPlaylist(t)
	err := p.Append(domain.MediaItem{ID: "x"})
	require.Error(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestPlaylist_RepeatAllIsCyclic(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			names := make([]string, n)
			for i := range names {
				names[i] = fmt.Sprintf("item%d", i)
			}
			p := newTestPlaylist(t, names...)
			p.SetRepeat(domain.RepeatAll)
			_, err := p.GoTo(n / 2)
			require.NoError(t, err)
			start := currentID(t, p)

			for i := 0; i < n; i++ {
				_, ok := p.Advance(domain.AdvanceEndOfStream)
				require.True(t, ok)
			}
			assert.Equal(t, start, currentID(t, p))
		})
	}
}

func TestPlaylist_RepeatOffTerminates(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")

	item, ok := p.Advance(domain.AdvanceEndOfStream)
	require.True(t, ok)
	assert.Equal(t, "b", item.ID)

	_, ok = p.Advance(domain.AdvanceEndOfStream)
	assert.False(t, ok)
	assert.Equal(t, "b", currentID(t, p), "cursor stays on the last item")
}

func TestPlaylist_RepeatOneReplaysOnEndOfStream(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")
	p.SetRepeat(domain.RepeatOne)

	for i := 0; i < 3; i++ {
		item, ok := p.Advance(domain.AdvanceEndOfStream)
		require.True(t, ok)
		assert.Equal(t, "a", item.ID)
	}

	// Manual navigation still moves on and stops at the boundary
	item, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", item.ID)
	_, err = p.Next()
	assert.ErrorIs(t, err, domain.ErrPlaylistBoundary)
}

func TestPlaylist_ManualNavigationBoundaries(t *testing.T) {
	p := newTestPlaylist(t, "a", "b", "c")

	_, err := p.Previous()
	assert.ErrorIs(t, err, domain.ErrPlaylistBoundary)
	assert.Equal(t, "a", currentID(t, p))

	p.SetRepeat(domain.RepeatAll)
	item, err := p.Previous()
	require.NoError(t, err)
	assert.Equal(t, "c", item.ID)

	item, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", item.ID)
}

func TestPlaylist_AdvanceManualMatchesNext(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")
	item, ok := p.Advance(domain.AdvanceManual)
	require.True(t, ok)
	assert.Equal(t, "b", item.ID)

	_, ok = p.Advance(domain.AdvanceManual)
	assert.False(t, ok)
}

func TestPlaylist_ShuffleEndOfStreamPicksAnotherItem(t *testing.T) {
	p := newTestPlaylist(t, "a", "b", "c", "d")
	p.SetShuffle(true)

	seen := map[string]int{}
	prev := currentID(t, p)
	for i := 0; i < 400; i++ {
		item, ok := p.Advance(domain.AdvanceEndOfStream)
		require.True(t, ok, "shuffle with more than one item never runs out")
		assert.NotEqual(t, prev, item.ID)
		seen[item.ID]++
		prev = item.ID
	}

	// Every item is reachable
	assert.Len(t, seen, 4)
}

func TestPlaylist_ShuffleSingleItem(t *testing.T) {
	p := newTestPlaylist(t, "only")
	p.SetShuffle(true)

	_, ok := p.Advance(domain.AdvanceEndOfStream)
	assert.False(t, ok)

	p.SetRepeat(domain.RepeatAll)
	item, ok := p.Advance(domain.AdvanceEndOfStream)
	require.True(t, ok)
	assert.Equal(t, "only", item.ID)
}

func TestPlaylist_SetShuffleKeepsCurrentFirst(t *testing.T) {
	p := newTestPlaylist(t, "a", "b", "c", "d", "e")
	_, err := p.GoTo(2)
	require.NoError(t, err)

	p.SetShuffle(true)
	snap := p.Snapshot()
	assert.True(t, snap.Shuffle)
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, 2, snap.Order[0])
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, snap.Order)

	// Manual Next walks the shuffled order
	item, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, snap.Items[snap.Order[1]].ID, item.ID)

	p.SetShuffle(false)
	snap = p.Snapshot()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, snap.Order)
	assert.Equal(t, item.ID, snap.Items[snap.Current].ID)
}

func TestPlaylist_ShuffleAppendKeepsPermutation(t *testing.T) {
	p := newTestPlaylist(t, "a", "b", "c")
	p.SetShuffle(true)
	require.NoError(t, p.Append(makeItems("d", "e", "f")...))

	snap := p.Snapshot()
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, snap.Order)
	assert.Equal(t, "a", currentID(t, p))
}

func TestPlaylist_Remove(t *testing.T) {
	t.Run("before cursor", func(t *testing.T) {
		p := newTestPlaylist(t, "a", "b", "c")
		_, _ = p.GoTo(2)

		wasCurrent, err := p.Remove(0)
		require.NoError(t, err)
		assert.False(t, wasCurrent)
		assert.Equal(t, "c", currentID(t, p))
		assert.Equal(t, 1, p.CurrentIndex())
	})

	t.Run("current item", func(t *testing.T) {
		p := newTestPlaylist(t, "a", "b", "c")
		_, _ = p.GoTo(1)

		wasCurrent, err := p.Remove(1)
		require.NoError(t, err)
		assert.True(t, wasCurrent)
		assert.Equal(t, "c", currentID(t, p))
	})

	t.Run("current last item", func(t *testing.T) {
		p := newTestPlaylist(t, "a", "b")
		_, _ = p.GoTo(1)

		wasCurrent, err := p.Remove(1)
		require.NoError(t, err)
		assert.True(t, wasCurrent)
		assert.Equal(t, "a", currentID(t, p))
	})

	t.Run("only item", func(t *testing.T) {
		p := newTestPlaylist(t, "a")
		_, err := p.Remove(0)
		require.NoError(t, err)
		assert.Equal(t, domain.NoIndex, p.CurrentIndex())
	})

	t.Run("out of range", func(t *testing.T) {
		p := newTestPlaylist(t, "a")
		_, err := p.Remove(3)
		assert.ErrorIs(t, err, domain.ErrInvalidIndex)

		var indexErr *domain.IndexError
		require.ErrorAs(t, err, &indexErr)
		assert.Equal(t, "remove", indexErr.Op)
	})

	t.Run("shuffled order is remapped", func(t *testing.T) {
		p := newTestPlaylist(t, "a", "b", "c", "d")
		p.SetShuffle(true)
		_, err := p.Remove(2)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{0, 1, 2}, p.Snapshot().Order)
		assert.Equal(t, "a", currentID(t, p))
	})
}

func TestPlaylist_MoveFollowsCurrentItem(t *testing.T) {
	p := newTestPlaylist(t, "a", "b", "c", "d")
	_, _ = p.GoTo(1)

	require.NoError(t, p.Move(1, 3))
	snap := p.Snapshot()
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(snap.Items))
	assert.Equal(t, 3, snap.Current)

	require.NoError(t, p.Move(3, 0))
	snap = p.Snapshot()
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(snap.Items))
	assert.Equal(t, 0, snap.Current)

	require.NoError(t, p.Move(2, 1))
	assert.Equal(t, "b", currentID(t, p))

	assert.ErrorIs(t, p.Move(0, 9), domain.ErrInvalidIndex)
	assert.ErrorIs(t, p.Move(-1, 0), domain.ErrInvalidIndex)
}

func TestPlaylist_MoveUnderShuffle(t *testing.T) {
	p := newTestPlaylist(t, "a", "b", "c", "d")
	p.SetShuffle(true)
	before := currentID(t, p)

	require.NoError(t, p.Move(0, 3))
	assert.Equal(t, before, currentID(t, p))
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, p.Snapshot().Order)
}

func TestPlaylist_Clear(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")
	p.Clear()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, domain.NoIndex, p.CurrentIndex())
}

func TestPlaylist_GoToOutOfRange(t *testing.T) {
	p := newTestPlaylist(t, "a")
	_, err := p.GoTo(1)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestPlaylist_Restore(t *testing.T) {
	p := NewPlaylistManager(logger.NewTestLogger(), rand.New(rand.NewPCG(3, 4)))

	p.Restore(domain.PlaylistSnapshot{
		Items:   makeItems("a", "b", "c"),
		Current: 2,
		Order:   []int{2, 0, 1},
		Repeat:  domain.RepeatAll,
		Shuffle: true,
	})
	snap := p.Snapshot()
	assert.Equal(t, []int{2, 0, 1}, snap.Order)
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, domain.RepeatAll, snap.Repeat)

	// Broken order and cursor are repaired
	p.Restore(domain.PlaylistSnapshot{
		Items:   makeItems("a", "b"),
		Current: 7,
		Order:   []int{0, 0},
	})
	snap = p.Snapshot()
	assert.Equal(t, []int{0, 1}, snap.Order)
	assert.Equal(t, 0, snap.Current)

	p.Restore(domain.PlaylistSnapshot{Current: 4})
	assert.Equal(t, domain.NoIndex, p.CurrentIndex())
}

func TestPlaylist_RevisionTracksMutations(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")
	rev := p.Revision()

	p.SetRepeat(domain.RepeatOff)
	assert.Equal(t, rev, p.Revision(), "no-op does not bump the revision")

	_, _ = p.Next()
	assert.Greater(t, p.Revision(), rev)
}

func TestPlaylist_SnapshotIsImmutable(t *testing.T) {
	p := newTestPlaylist(t, "a", "b")
	snap := p.Snapshot()
	snap.Items[0].Title = "changed"
	snap.Order[0] = 1

	fresh := p.Snapshot()
	assert.Equal(t, "a", fresh.Items[0].Title)
	assert.Equal(t, 0, fresh.Order[0])
}

func ids(items []domain.MediaItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
