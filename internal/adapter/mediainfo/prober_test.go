package mediainfo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/logger"
)

// id3v1 builds a file body ending in an ID3v1 tag.
func id3v1(title, artist string) []byte {
	field := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}

	body := make([]byte, 64)
	body = append(body, "TAG"...)
	body = append(body, field(title, 30)...)
	body = append(body, field(artist, 30)...)
	body = append(body, field("", 30)...) // album
	body = append(body, field("2001", 4)...)
	body = append(body, field("", 30)...) // comment
	body = append(body, 0xff)             // genre
	return body
}

func newTestProber(t *testing.T, files map[string][]byte) *Prober {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
	}
	return NewProber(logger.NewTestLogger(), fs)
}

func TestProbe_LocalFile(t *testing.T) {
	p := newTestProber(t, map[string][]byte{
		"/media/Big Buck Bunny.mkv": []byte("not really matroska"),
	})

	item, err := p.Probe(context.Background(), "/media/Big Buck Bunny.mkv")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "/media/Big Buck Bunny.mkv", item.URI)
	assert.Equal(t, "Big Buck Bunny", item.Title)
	assert.Empty(t, item.SubtitleURI)
}

func TestProbe_FileURI(t *testing.T) {
	p := newTestProber(t, map[string][]byte{
		"/media/clip.mp4": []byte("data"),
	})

	item, err := p.Probe(context.Background(), "file:///media/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/media/clip.mp4"), item.URI)
}

func TestProbe_TaggedTitle(t *testing.T) {
	p := newTestProber(t, map[string][]byte{
		"/music/track01.mp3": id3v1("Windowlicker", "Aphex Twin"),
		"/music/track02.mp3": id3v1("Untitled", ""),
	})

	item, err := p.Probe(context.Background(), "/music/track01.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Aphex Twin - Windowlicker", item.Title)

	item, err = p.Probe(context.Background(), "/music/track02.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", item.Title)
}

func TestProbe_SubtitleSidecar(t *testing.T) {
	p := newTestProber(t, map[string][]byte{
		"/media/movie.mkv":  []byte("video"),
		"/media/movie.srt":  []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"),
		"/media/other.mkv":  []byte("video"),
		"/media/upper.avi":  []byte("video"),
		"/media/upper.SRT":  []byte("subs"),
		"/media/orphan.srt": []byte("subs"),
	})

	item, err := p.Probe(context.Background(), "/media/movie.mkv")
	require.NoError(t, err)
	assert.Equal(t, "/media/movie.srt", item.SubtitleURI)

	item, err = p.Probe(context.Background(), "/media/other.mkv")
	require.NoError(t, err)
	assert.Empty(t, item.SubtitleURI)

	item, err = p.Probe(context.Background(), "/media/upper.avi")
	require.NoError(t, err)
	assert.Equal(t, "/media/upper.SRT", item.SubtitleURI)
}

func TestProbe_NetworkURIPassesThrough(t *testing.T) {
	p := newTestProber(t, nil)

	item, err := p.Probe(context.Background(), "https://example.com/streams/live.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/streams/live.m3u8", item.URI)
	assert.Equal(t, "live.m3u8", item.Title)

	item, err = p.Probe(context.Background(), "rtsp://camera.local")
	require.NoError(t, err)
	assert.Equal(t, "camera.local", item.Title)
}

func TestProbe_Errors(t *testing.T) {
	p := newTestProber(t, map[string][]byte{
		"/media/dir/a.mkv": []byte("a"),
	})

	_, err := p.Probe(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidURI)

	_, err = p.Probe(context.Background(), "/media/missing.mkv")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	_, err = p.Probe(context.Background(), "/media/dir")
	assert.ErrorIs(t, err, domain.ErrInvalidURI)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Probe(ctx, "/media/dir/a.mkv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbe_UniqueIDs(t *testing.T) {
	p := newTestProber(t, map[string][]byte{"/a.mkv": []byte("a")})

	first, err := p.Probe(context.Background(), "/a.mkv")
	require.NoError(t, err)
	second, err := p.Probe(context.Background(), "/a.mkv")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestProbeAll_ExpandsFolders(t *testing.T) {
	p := newTestProber(t, map[string][]byte{
		"/lib/b.mkv":        []byte("b"),
		"/lib/a.mp3":        []byte("a"),
		"/lib/notes.txt":    []byte("skip"),
		"/lib/a.srt":        []byte("subs"),
		"/lib/sub/c.FLAC":   []byte("c"),
		"/single/x.unknown": []byte("explicit files are kept"),
	})

	var progress []Progress
	items, err := p.ProbeAll(context.Background(),
		[]string{"/lib", "/single/x.unknown", "https://example.com/radio"},
		func(pr Progress) { progress = append(progress, pr) })
	require.NoError(t, err)

	uris := make([]string, len(items))
	for i, item := range items {
		uris[i] = item.URI
	}
	assert.Equal(t, []string{
		"/lib/a.mp3",
		"/lib/b.mkv",
		"/lib/sub/c.FLAC",
		"/single/x.unknown",
		"https://example.com/radio",
	}, uris)
	assert.Equal(t, "/lib/a.srt", items[0].SubtitleURI)

	require.Len(t, progress, 5)
	assert.Equal(t, Progress{Current: "https://example.com/radio", Done: 5, Total: 5, Found: 5}, progress[4])
}

func TestProbeAll_SkipsFailures(t *testing.T) {
	p := newTestProber(t, map[string][]byte{"/ok.mkv": []byte("ok")})

	items, err := p.ProbeAll(context.Background(), []string{"/missing.mkv", "/ok.mkv"}, nil)
	require.Len(t, items, 1)
	assert.Equal(t, "/ok.mkv", items[0].URI)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestProbeAll_Cancelled(t *testing.T) {
	p := newTestProber(t, map[string][]byte{"/lib/a.mkv": []byte("a")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProbeAll(ctx, []string{"/lib"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("/x/Movie.MKV"))
	assert.True(t, IsSupported("song.flac"))
	assert.False(t, IsSupported("notes.txt"))
	assert.False(t, IsSupported("noext"))

	formats := SupportedFormats()
	formats[0] = ".changed"
	assert.True(t, IsSupported("a.mkv"))
}
