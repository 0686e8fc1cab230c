package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 2, c.Len())

	stations := c.Stations()
	assert.Equal(t, "ming-pen-am1296", stations[0].ID)
	assert.Equal(t, "ming-pen-am855", stations[1].ID)

	station, err := c.Lookup("ming-pen-am855")
	require.NoError(t, err)
	assert.Equal(t, "Ming Pen Station Two AM855", station.Name)
	assert.Len(t, station.SourcePages, 2)
}

func TestLookup(t *testing.T) {
	c := Default()

	t.Run("unknown station", func(t *testing.T) {
		_, err := c.Lookup("bbc-radio-1")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.ErrCodeStationNotFound))
	})

	t.Run("suggestion for near miss", func(t *testing.T) {
		_, err := c.Lookup("ming-pen-am1269")
		require.Error(t, err)

		var streamErr *common.StreamError
		require.True(t, errors.As(err, &streamErr))
		assert.Equal(t, "ming-pen-am1296", streamErr.Fields["suggestion"])
	})
}

func TestSuggest(t *testing.T) {
	c := Default()

	assert.Equal(t, "ming-pen-am855", c.Suggest("MING-PEN-AM855"))
	assert.Equal(t, "", c.Suggest(""))
	assert.Equal(t, "", c.Suggest("zz"))
}

func TestPlaylistURL(t *testing.T) {
	testCases := []struct {
		name     string
		streams  []StreamVariant
		expected string
		code     string
	}{
		{
			name: "variant preferred over earlier master",
			streams: []StreamVariant{
				{Type: "HLS", Role: RoleMaster, URL: "https://cdn.example.com/live/playlist.m3u8"},
				{Type: "HLS", Role: RoleVariant, URL: "https://cdn.example.com/live/chunklist.m3u8"},
			},
			expected: "https://cdn.example.com/live/chunklist.m3u8",
		},
		{
			name: "falls back to first hls stream",
			streams: []StreamVariant{
				{Type: "icecast", Role: RoleMaster, URL: "https://cdn.example.com/live.mp3"},
				{Type: "hls", Role: RoleMaster, URL: "https://cdn.example.com/live/playlist.m3u8"},
			},
			expected: "https://cdn.example.com/live/playlist.m3u8",
		},
		{
			name: "no playable stream",
			streams: []StreamVariant{
				{Type: "icecast", Role: RoleMaster, URL: "https://cdn.example.com/live.mp3"},
			},
			code: common.ErrCodeNoPlayableStream,
		},
		{
			name: "no streams",
			code: common.ErrCodeNoPlayableStream,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			station := &Station{ID: "test", Name: "Test", Streams: tc.streams}
			url, err := station.PlaylistURL()
			if tc.code != "" {
				require.Error(t, err)
				assert.True(t, common.IsCode(err, tc.code))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, url)
		})
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("duplicate ids", func(t *testing.T) {
		_, err := New([]Station{{ID: "a", Name: "A"}, {ID: "a", Name: "A again"}})
		assert.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := New([]Station{{Name: "A"}})
		assert.Error(t, err)
	})

	t.Run("invalid stream url", func(t *testing.T) {
		_, err := New([]Station{{ID: "a", Name: "A", Streams: []StreamVariant{{Type: "HLS", URL: "ftp://x"}}}})
		assert.Error(t, err)
	})

	t.Run("genres are normalised", func(t *testing.T) {
		c, err := New([]Station{{ID: "a", Name: "A", Genres: []string{"adult contemporary", "Adult Contemporary", " pop "}}})
		require.NoError(t, err)

		station, err := c.Lookup("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"Adult Contemporary", "Pop"}, station.Genres)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path uses defaults", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "stations.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`stations:
  - id: test-fm
    name: Test FM
    genres: [news]
    source_pages: ["https://example.com/test-fm"]
    streams:
      - type: HLS
        role: variant
        url: https://cdn.example.com/test/chunklist.m3u8
`), 0o644))

		c, err := Load(path)
		require.NoError(t, err)

		station, err := c.Lookup("test-fm")
		require.NoError(t, err)
		assert.Equal(t, []string{"News"}, station.Genres)
		assert.Equal(t, []string{"https://example.com/test-fm"}, station.SourcePages)

		url, err := station.PlaylistURL()
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/test/chunklist.m3u8", url)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "stations.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"stations":[{"id":"json-fm","name":"JSON FM","sourcePages":["https://example.com"],"streams":[]}]}`), 0o644))

		c, err := Load(path)
		require.NoError(t, err)

		station, err := c.Lookup("json-fm")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com"}, station.SourcePages)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty catalog", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stations: []\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
