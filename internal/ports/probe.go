package ports

import (
	"context"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// MediaProber turns user-opened paths or URIs into MediaItems.
// It runs outside the playback core (before items are appended) and may touch the filesystem.
type MediaProber interface {
	// Probe builds a MediaItem for target, filling in the title, duration hint and
	// subtitle sidecar when they can be determined.
	Probe(ctx context.Context, target string) (domain.MediaItem, error)
}
