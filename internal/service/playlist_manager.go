// Package service provides the playback control core of goplayer.
package service

import (
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// PlaylistManager owns the ordered item sequence, the cursor and the repeat/shuffle policy.
//
// The cursor is a position in the play order, which is the identity permutation
// unless shuffle is on. The cursor is NoIndex iff the playlist is empty.
//
// Thread-safety: not safe for concurrent use. The controller's owner goroutine is
// its only caller once the controller is started.
type PlaylistManager struct {
	logger *slog.Logger
	rng    *rand.Rand

	items    []domain.MediaItem
	order    []int
	pos      int
	repeat   domain.RepeatMode
	shuffle  bool
	revision uint64
}

// NewPlaylistManager creates an empty playlist. rng drives shuffle decisions; pass a
// seeded source for reproducible orders.
func NewPlaylistManager(logger *slog.Logger, rng *rand.Rand) *PlaylistManager {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &PlaylistManager{
		logger: logger,
		rng:    rng,
		pos:    domain.NoIndex,
	}
}

// Restore replaces the whole playlist with a saved snapshot.
// A saved order that is not a permutation of the items is replaced by a fresh one.
func (p *PlaylistManager) Restore(snapshot domain.PlaylistSnapshot) {
	p.items = slices.Clone(snapshot.Items)
	p.repeat = snapshot.Repeat
	p.shuffle = snapshot.Shuffle

	current := snapshot.Current
	if len(p.items) == 0 {
		current = domain.NoIndex
	} else if current < 0 || current >= len(p.items) {
		current = 0
	}

	switch {
	case isPermutation(snapshot.Order, len(p.items)):
		p.order = slices.Clone(snapshot.Order)
	case p.shuffle:
		p.order = p.shuffledOrder(current)
	default:
		p.order = identity(len(p.items))
	}

	p.pos = p.positionOf(current)
	p.touch()

	p.logger.Debug("playlist restored",
		slog.Int("items", len(p.items)),
		slog.Int("current", current),
		slog.String("repeat", p.repeat.String()),
		slog.Bool("shuffle", p.shuffle))
}

// Append adds items at the end of the sequence. Under shuffle the new items are
// spread randomly over the part of the order that has not been played yet.
func (p *PlaylistManager) Append(items ...domain.MediaItem) error {
	for _, item := range items {
		if item.URI == "" {
			return domain.NewValidationError("uri", item.URI, "media item has no uri")
		}
	}
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		index := len(p.items)
		p.items = append(p.items, item)

		if !p.shuffle {
			p.order = append(p.order, index)
			continue
		}
		first := p.pos + 1
		at := first + p.rng.IntN(len(p.order)-first+1)
		p.order = slices.Insert(p.order, at, index)
	}

	if p.pos == domain.NoIndex {
		p.pos = 0
	}
	p.touch()

	p.logger.Debug("items appended", slog.Int("count", len(items)), slog.Int("total", len(p.items)))
	return nil
}

// Remove deletes the item at index. It reports whether the removed item was the
// current one; the cursor then moves to the item that took its place in the order.
func (p *PlaylistManager) Remove(index int) (bool, error) {
	if index < 0 || index >= len(p.items) {
		return false, domain.NewIndexError("remove", index, len(p.items))
	}

	removedPos := p.positionOf(index)
	wasCurrent := removedPos == p.pos

	p.items = slices.Delete(p.items, index, index+1)
	p.order = lo.FilterMap(p.order, func(v int, _ int) (int, bool) {
		switch {
		case v == index:
			return 0, false
		case v > index:
			return v - 1, true
		default:
			return v, true
		}
	})

	switch {
	case len(p.items) == 0:
		p.pos = domain.NoIndex
	case removedPos < p.pos:
		p.pos--
	case p.pos >= len(p.order):
		p.pos = len(p.order) - 1
	}
	p.touch()

	return wasCurrent, nil
}

// Move relocates the item at from to index to. The cursor keeps pointing at the same item.
func (p *PlaylistManager) Move(from, to int) error {
	if from < 0 || from >= len(p.items) {
		return domain.NewIndexError("move", from, len(p.items))
	}
	if to < 0 || to >= len(p.items) {
		return domain.NewIndexError("move", to, len(p.items))
	}
	if from == to {
		return nil
	}

	current := p.CurrentIndex()

	item := p.items[from]
	p.items = slices.Delete(p.items, from, from+1)
	p.items = slices.Insert(p.items, to, item)

	remap := func(v int) int {
		switch {
		case v == from:
			return to
		case from < to && v > from && v <= to:
			return v - 1
		case from > to && v >= to && v < from:
			return v + 1
		default:
			return v
		}
	}

	if p.shuffle {
		p.order = lo.Map(p.order, func(v int, _ int) int { return remap(v) })
	} else {
		p.order = identity(len(p.items))
		p.pos = remap(current)
	}
	p.touch()

	return nil
}

// Clear empties the playlist.
func (p *PlaylistManager) Clear() {
	p.items = nil
	p.order = nil
	p.pos = domain.NoIndex
	p.touch()
}

// GoTo makes the item at index current.
func (p *PlaylistManager) GoTo(index int) (domain.MediaItem, error) {
	if index < 0 || index >= len(p.items) {
		return domain.MediaItem{}, domain.NewIndexError("goto", index, len(p.items))
	}
	p.pos = p.positionOf(index)
	p.touch()
	return p.items[index], nil
}

// Advance moves to the item that should play next and returns it.
// It returns false when playback should stop; the cursor then stays where it was.
//
// For AdvanceEndOfStream:
//   - repeat one replays the current item
//   - shuffle picks uniformly among the other items
//   - otherwise the next item in order, wrapping only under repeat all
//
// AdvanceManual behaves like Next.
func (p *PlaylistManager) Advance(reason domain.AdvanceReason) (domain.MediaItem, bool) {
	if p.pos == domain.NoIndex {
		return domain.MediaItem{}, false
	}

	if reason == domain.AdvanceManual {
		item, err := p.Next()
		return item, err == nil
	}

	if p.repeat == domain.RepeatOne {
		return p.items[p.order[p.pos]], true
	}

	if p.shuffle {
		if len(p.items) == 1 {
			if p.repeat == domain.RepeatAll {
				return p.items[0], true
			}
			return domain.MediaItem{}, false
		}
		current := p.order[p.pos]
		pick := p.rng.IntN(len(p.items) - 1)
		if pick >= current {
			pick++
		}
		p.pos = p.positionOf(pick)
		p.touch()
		return p.items[pick], true
	}

	return p.step(1, p.repeat == domain.RepeatAll)
}

// Next steps forward along the play order.
// It returns ErrPlaylistBoundary at the end unless repeat is all.
func (p *PlaylistManager) Next() (domain.MediaItem, error) {
	return p.manualStep(1)
}

// Previous steps backward along the play order.
// It returns ErrPlaylistBoundary at the start unless repeat is all.
func (p *PlaylistManager) Previous() (domain.MediaItem, error) {
	return p.manualStep(-1)
}

func (p *PlaylistManager) manualStep(delta int) (domain.MediaItem, error) {
	if p.pos == domain.NoIndex {
		return domain.MediaItem{}, domain.ErrPlaylistEmpty
	}
	item, ok := p.step(delta, p.repeat == domain.RepeatAll)
	if !ok {
		return domain.MediaItem{}, domain.ErrPlaylistBoundary
	}
	return item, nil
}

func (p *PlaylistManager) step(delta int, wrap bool) (domain.MediaItem, bool) {
	next := p.pos + delta
	if next < 0 || next >= len(p.order) {
		if !wrap {
			return domain.MediaItem{}, false
		}
		next = (next + len(p.order)) % len(p.order)
	}
	p.pos = next
	p.touch()
	return p.items[p.order[p.pos]], true
}

// Current returns the current item.
func (p *PlaylistManager) Current() (domain.MediaItem, bool) {
	if p.pos == domain.NoIndex {
		return domain.MediaItem{}, false
	}
	return p.items[p.order[p.pos]], true
}

// CurrentIndex returns the index of the current item in the sequence, or NoIndex.
func (p *PlaylistManager) CurrentIndex() int {
	if p.pos == domain.NoIndex {
		return domain.NoIndex
	}
	return p.order[p.pos]
}

// SetRepeat changes the repeat mode.
func (p *PlaylistManager) SetRepeat(mode domain.RepeatMode) {
	if p.repeat == mode {
		return
	}
	p.repeat = mode
	p.touch()
}

// SetShuffle turns shuffle on or off. Turning it on reshuffles with the current
// item first; turning it off restores the sequence order.
func (p *PlaylistManager) SetShuffle(on bool) {
	if p.shuffle == on {
		return
	}
	current := p.CurrentIndex()
	p.shuffle = on

	if on {
		p.order = p.shuffledOrder(current)
	} else {
		p.order = identity(len(p.items))
	}
	p.pos = p.positionOf(current)
	p.touch()
}

// Repeat returns the repeat mode.
func (p *PlaylistManager) Repeat() domain.RepeatMode { return p.repeat }

// Shuffle reports whether shuffle is on.
func (p *PlaylistManager) Shuffle() bool { return p.shuffle }

// Len returns the number of items.
func (p *PlaylistManager) Len() int { return len(p.items) }

// Revision increases on every mutation, cursor moves included.
func (p *PlaylistManager) Revision() uint64 { return p.revision }

// Snapshot returns an immutable copy of the playlist.
func (p *PlaylistManager) Snapshot() domain.PlaylistSnapshot {
	return domain.PlaylistSnapshot{
		Items:   slices.Clone(p.items),
		Current: p.CurrentIndex(),
		Order:   slices.Clone(p.order),
		Repeat:  p.repeat,
		Shuffle: p.shuffle,
	}
}

func (p *PlaylistManager) touch() {
	p.revision++
}

// positionOf returns the order position of item index, or NoIndex.
func (p *PlaylistManager) positionOf(index int) int {
	if index == domain.NoIndex {
		return domain.NoIndex
	}
	return slices.Index(p.order, index)
}

// shuffledOrder returns a random permutation with first (if valid) in front.
func (p *PlaylistManager) shuffledOrder(first int) []int {
	order := identity(len(p.items))
	p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	if first >= 0 && first < len(order) {
		at := slices.Index(order, first)
		order[0], order[at] = order[at], order[0]
	}
	return order
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
