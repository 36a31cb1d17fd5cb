// Package mediainfo turns user-opened paths and URIs into playlist items.
package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// subtitleExt is the extension of sidecar subtitle files.
const subtitleExt = ".srt"

// Prober builds MediaItems from local files and network URIs.
//
// Local files are checked for existence, tagged files get their embedded title
// and a "<name>.srt" next to the file becomes the item's subtitle. Network URIs
// are passed through untouched.
//
// Thread-safety: safe for concurrent use; it holds no mutable state.
type Prober struct {
	logger *slog.Logger
	fs     afero.Fs
}

// NewProber creates a prober reading from filesystem. A nil filesystem means the OS filesystem.
func NewProber(logger *slog.Logger, filesystem afero.Fs) *Prober {
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	return &Prober{logger: logger, fs: filesystem}
}

// Probe builds a MediaItem for target.
func (p *Prober) Probe(ctx context.Context, target string) (domain.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaItem{}, err
	}

	target = strings.TrimSpace(target)
	if target == "" {
		return domain.MediaItem{}, domain.ErrInvalidURI
	}

	path, local, err := localPath(target)
	if err != nil {
		return domain.MediaItem{}, err
	}
	if !local {
		return domain.MediaItem{
			ID:    uuid.NewString(),
			URI:   target,
			Title: remoteTitle(target),
		}, nil
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.MediaItem{}, fmt.Errorf("%s: %w", path, domain.ErrFileNotFound)
		}
		return domain.MediaItem{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.MediaItem{}, fmt.Errorf("%s is a directory: %w", path, domain.ErrInvalidURI)
	}

	item := domain.MediaItem{
		ID:    uuid.NewString(),
		URI:   path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	if title := p.taggedTitle(path); title != "" {
		item.Title = title
	}
	item.SubtitleURI = p.sidecar(path)

	return item, nil
}

// taggedTitle reads the embedded title, as "Artist - Title" when both are set.
// Files without readable tags (most video containers) yield "".
func (p *Prober) taggedTitle(path string) string {
	file, err := p.fs.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		return ""
	}

	title := strings.TrimSpace(metadata.Title())
	if title == "" {
		return ""
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		return artist + " - " + title
	}
	return title
}

// sidecar returns the path of a subtitle file with the media file's base name, or "".
func (p *Prober) sidecar(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{subtitleExt, strings.ToUpper(subtitleExt)} {
		candidate := base + ext
		if info, err := p.fs.Stat(candidate); err == nil && !info.IsDir() {
			p.logger.Debug("subtitle sidecar found", slog.String("path", candidate))
			return candidate
		}
	}
	return ""
}

// localPath reports whether target refers to the local filesystem and returns its path.
func localPath(target string) (string, bool, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters
		return filepath.Clean(target), true, nil
	}
	if u.Scheme != "file" {
		return "", false, nil
	}
	if u.Path == "" {
		return "", false, fmt.Errorf("%q: %w", target, domain.ErrInvalidURI)
	}
	return filepath.FromSlash(u.Path), true, nil
}

func remoteTitle(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	name := filepath.Base(u.Path)
	if name == "." || name == "/" {
		return u.Host
	}
	return name
}

// Verify that Prober implements the MediaProber interface
var _ ports.MediaProber = (*Prober)(nil)
