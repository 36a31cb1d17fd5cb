package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// supportedExts lists the extensions picked up when a folder is expanded.
// Files named explicitly are probed whatever their extension.
var supportedExts = []string{
	// Video
	".mkv", ".mp4", ".m4v", ".webm", ".avi", ".mov", ".wmv", ".mpg", ".mpeg",
	".ts", ".m2ts", ".ogv", ".flv", ".3gp",
	// Audio
	".mp3", ".ogg", ".oga", ".opus", ".wav", ".aif", ".aiff", ".flac",
	".aac", ".m4a", ".m4b", ".wma", ".wv", ".ape", ".mpc",
}

// IsSupported reports whether path has a media extension picked up by folder expansion.
func IsSupported(path string) bool {
	return slices.Contains(supportedExts, strings.ToLower(filepath.Ext(path)))
}

// SupportedFormats returns a copy of the recognized media extensions.
func SupportedFormats() []string {
	return slices.Clone(supportedExts)
}

// Progress is reported after each probed entry.
type Progress struct {
	Current string
	Done    int
	Total   int
	Found   int
}

// ProbeAll expands folders among targets (recursively, in lexical order) and probes
// every entry. Entries that cannot be probed are skipped; their errors are joined
// into the returned error alongside the items that did probe. onProgress may be nil.
//
// Cancelling ctx stops the scan and returns what was found so far with ctx's error.
func (p *Prober) ProbeAll(ctx context.Context, targets []string, onProgress func(Progress)) ([]domain.MediaItem, error) {
	entries, err := p.expand(ctx, targets)
	if err != nil {
		return nil, err
	}

	items := make([]domain.MediaItem, 0, len(entries))
	var failures []error

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		item, err := p.Probe(ctx, entry)
		if err != nil {
			p.logger.Warn("skipping entry", slog.String("target", entry), slog.Any("error", err))
			failures = append(failures, err)
		} else {
			items = append(items, item)
		}

		if onProgress != nil {
			onProgress(Progress{Current: entry, Done: i + 1, Total: len(entries), Found: len(items)})
		}
	}

	p.logger.Info("probe finished",
		slog.Int("targets", len(targets)),
		slog.Int("items", len(items)),
		slog.Int("skipped", len(failures)))

	return items, errors.Join(failures...)
}

// expand replaces every local directory in targets with the supported files below it.
func (p *Prober) expand(ctx context.Context, targets []string) ([]string, error) {
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		path, local, err := localPath(strings.TrimSpace(target))
		if err != nil || !local {
			out = append(out, target)
			continue
		}

		info, err := p.fs.Stat(path)
		if err != nil || !info.IsDir() {
			out = append(out, target)
			continue
		}

		files, err := p.collect(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		out = append(out, files...)
	}
	return out, nil
}

// collect recursively gathers supported files under root.
func (p *Prober) collect(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Skip what we can't access
			p.logger.Debug("unreadable path", slog.String("path", path), slog.Any("error", err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() && IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}
