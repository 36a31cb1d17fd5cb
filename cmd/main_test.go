package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// execute runs the root command with args and an isolated home directory.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "goplayer dev")
	assert.Contains(t, out, "platform:")
}

func TestProbeCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mkv"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.srt"), []byte("subs"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("a"), 0o600))

	out, _, err := execute(t, "probe", "--json", dir, "https://example.com/live.m3u8")
	require.NoError(t, err)

	var items []domain.MediaItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Title)
	assert.Equal(t, filepath.Join(dir, "b.srt"), items[1].SubtitleURI)
	assert.Equal(t, "https://example.com/live.m3u8", items[2].URI)

	out, _, err = execute(t, "probe", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, filepath.Join(dir, "a.mp3"))
}

func TestProbeCommand_NothingPlayable(t *testing.T) {
	_, stderr, err := execute(t, "probe", filepath.Join(t.TempDir(), "missing.mkv"))
	assert.ErrorIs(t, err, errNothingPlayable)
	assert.Contains(t, stderr, "skipped:")
}

func TestRootCommand_InvalidEngine(t *testing.T) {
	_, _, err := execute(t, "probe", "--engine", "vlc", t.TempDir())
	assert.ErrorContains(t, err, "invalid engine kind")
}
