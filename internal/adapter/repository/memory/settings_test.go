package memory

import (
	"fmt"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/logger"
)

// Helper to create a test settings repository
func newTestSettingsRepository() *SettingsRepository {
	app := test.NewApp()
	return NewSettingsRepository(app.Preferences(), logger.NewTestLogger())
}

func testItems() []domain.MediaItem {
	return []domain.MediaItem{
		{ID: "1", URI: "/media/a.mkv", Title: "A", DurationHint: 90 * time.Second},
		{ID: "2", URI: "/media/b.mkv", SubtitleURI: "/media/b.srt"},
		{ID: "3", URI: "https://example.com/c.webm"},
	}
}

func TestSettingsRepository_PlaylistRoundTrip(t *testing.T) {
	repo := newTestSettingsRepository()

	snap := domain.PlaylistSnapshot{
		Items:   testItems(),
		Current: 2,
		Order:   []int{2, 0, 1},
		Repeat:  domain.RepeatAll,
		Shuffle: true,
	}
	require.NoError(t, repo.SavePlaylist(snap))

	loaded, err := repo.LoadPlaylist()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestSettingsRepository_LoadPlaylist_Empty(t *testing.T) {
	repo := newTestSettingsRepository()

	loaded, err := repo.LoadPlaylist()
	require.NoError(t, err)
	assert.Equal(t, domain.NoIndex, loaded.Current)
	assert.Empty(t, loaded.Items)
}

func TestSettingsRepository_LoadPlaylist_Corrupt(t *testing.T) {
	repo := newTestSettingsRepository()
	repo.prefs.SetString(keyPlaylist, "{not json")

	loaded, err := repo.LoadPlaylist()
	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, domain.NoIndex, loaded.Current)
}

func TestSettingsRepository_LoadPlaylist_DropsItemsWithoutURI(t *testing.T) {
	repo := newTestSettingsRepository()
	repo.prefs.SetString(keyPlaylist,
		`{"items":[{"id":"1","uri":"/a.mkv"},{"id":"2"}],"current":1,"order":[1,0],"repeat":"bogus"}`)

	loaded, err := repo.LoadPlaylist()
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 0, loaded.Current)
	assert.Nil(t, loaded.Order)
	assert.Equal(t, domain.RepeatOff, loaded.Repeat)
}

func TestSettingsRepository_Volume(t *testing.T) {
	repo := newTestSettingsRepository()

	volume, muted, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 1.0, volume)
	assert.False(t, muted)

	require.NoError(t, repo.SaveVolume(0.35, true))
	volume, muted, err = repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.35, volume)
	assert.True(t, muted)

	assert.ErrorIs(t, repo.SaveVolume(1.5, false), domain.ErrInvalidVolume)
	assert.ErrorIs(t, repo.SaveVolume(-0.1, false), domain.ErrInvalidVolume)
}

func TestSettingsRepository_DefaultVolume(t *testing.T) {
	repo := newTestSettingsRepository()

	repo.SetDefaultVolume(0.4)
	repo.SetDefaultVolume(7) // ignored
	volume, _, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.4, volume)

	// A saved level wins over the default
	require.NoError(t, repo.SaveVolume(0.9, false))
	volume, _, err = repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.9, volume)
}

func TestSettingsRepository_ResumePositions(t *testing.T) {
	repo := newTestSettingsRepository()

	_, ok := repo.ResumePosition("/media/a.mkv")
	assert.False(t, ok)

	require.NoError(t, repo.SaveResumePosition("/media/a.mkv", 95*time.Second+250*time.Millisecond))
	pos, ok := repo.ResumePosition("/media/a.mkv")
	require.True(t, ok)
	assert.Equal(t, 95*time.Second+250*time.Millisecond, pos)

	require.NoError(t, repo.SaveResumePosition("/media/a.mkv", 0))
	_, ok = repo.ResumePosition("/media/a.mkv")
	assert.False(t, ok)

	assert.ErrorIs(t, repo.SaveResumePosition("", time.Second), domain.ErrInvalidURI)
}

func TestSettingsRepository_ResumeSurvivesReopen(t *testing.T) {
	app := test.NewApp()
	prefs := app.Preferences()

	first := NewSettingsRepository(prefs, logger.NewTestLogger())
	require.NoError(t, first.SaveResumePosition("/media/a.mkv", time.Minute))

	second := NewSettingsRepository(prefs, logger.NewTestLogger())
	pos, ok := second.ResumePosition("/media/a.mkv")
	require.True(t, ok)
	assert.Equal(t, time.Minute, pos)
}

func TestSettingsRepository_ResumeTableIsBounded(t *testing.T) {
	repo := newTestSettingsRepository()
	clock := time.Unix(1_700_000_000, 0)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i := 0; i < maxResumeEntries+5; i++ {
		require.NoError(t, repo.SaveResumePosition(fmt.Sprintf("/media/%03d.mkv", i), time.Minute))
	}

	assert.Len(t, repo.resume, maxResumeEntries)
	_, ok := repo.ResumePosition("/media/000.mkv")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = repo.ResumePosition(fmt.Sprintf("/media/%03d.mkv", maxResumeEntries+4))
	assert.True(t, ok)
}

func TestSettingsRepository_Clear(t *testing.T) {
	repo := newTestSettingsRepository()
	require.NoError(t, repo.SavePlaylist(domain.PlaylistSnapshot{Items: testItems(), Current: 0}))
	require.NoError(t, repo.SaveVolume(0.2, true))
	require.NoError(t, repo.SaveResumePosition("/media/a.mkv", time.Minute))

	require.NoError(t, repo.Clear())

	loaded, err := repo.LoadPlaylist()
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)

	volume, muted, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 1.0, volume)
	assert.False(t, muted)

	_, ok := repo.ResumePosition("/media/a.mkv")
	assert.False(t, ok)
}
