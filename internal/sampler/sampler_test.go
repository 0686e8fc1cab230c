package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RyanBlaney/radio-sampler/pkg/catalog"
	"github.com/RyanBlaney/radio-sampler/pkg/recognition"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCDN serves a chunklist and numbered segments
type fakeCDN struct {
	server *httptest.Server

	mu        sync.Mutex
	chunklist string
	segments  map[string][]byte
	requests  []string
}

func newFakeCDN(t *testing.T, segmentCount int) *fakeCDN {
	t.Helper()

	cdn := &fakeCDN{segments: make(map[string][]byte)}

	var chunklist strings.Builder
	chunklist.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n")
	for i := range segmentCount {
		name := fmt.Sprintf("media_%d.aac", 100+i)
		chunklist.WriteString("#EXTINF:10.0,\n" + name + "\n")
		cdn.segments[name] = segmentData(i, 10000+i)
	}
	cdn.chunklist = chunklist.String()

	cdn.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cdn.mu.Lock()
		defer cdn.mu.Unlock()

		name := strings.TrimPrefix(r.URL.Path, "/live/")
		cdn.requests = append(cdn.requests, name)

		if name == "chunklist.m3u8" {
			w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
			w.Write([]byte(cdn.chunklist))
			return
		}

		data, ok := cdn.segments[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", common.AudioContentType)
		w.Write(data)
	}))
	t.Cleanup(cdn.server.Close)

	return cdn
}

func (c *fakeCDN) chunklistURL() string {
	return c.server.URL + "/live/chunklist.m3u8"
}

func (c *fakeCDN) setSegment(name string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data == nil {
		delete(c.segments, name)
		return
	}
	c.segments[name] = data
}

func (c *fakeCDN) setChunklist(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunklist = text
}

func (c *fakeCDN) requested() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func segmentData(index, size int) []byte {
	return bytes.Repeat([]byte{byte(index + 1)}, size)
}

// fakeRecognizer replays scripted responses
type fakeRecognizer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     [][]byte
}

func (f *fakeRecognizer) Recognize(ctx context.Context, audio []byte) (*recognition.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.calls)
	f.calls = append(f.calls, audio)

	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}

	raw := `{"status":"success","result":null}`
	if call < len(f.responses) {
		raw = f.responses[call]
	}

	var resp recognition.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}
	resp.Raw = json.RawMessage(raw)
	return &resp, nil
}

func (f *fakeRecognizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// countingRecorder tallies recorder events
type countingRecorder struct {
	mu          sync.Mutex
	stations    []string
	outcomes    []string
	windows     []string
	fetches     []string
	sampleCalls []string
}

func (r *countingRecorder) RecognitionCompleted(stationID, outcome string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = append(r.stations, stationID)
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) WindowAttempted(position, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, position+":"+result)
}

func (r *countingRecorder) SegmentFetched(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, result)
}

func (r *countingRecorder) SampleDownloaded(stationID, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = append(r.stations, stationID)
	r.sampleCalls = append(r.sampleCalls, result)
}

const testStationID = "test-fm"

func newTestSampler(t *testing.T, cdn *fakeCDN, recognizer Recognizer, streams ...catalog.StreamVariant) *Sampler {
	t.Helper()

	if len(streams) == 0 && cdn != nil {
		streams = []catalog.StreamVariant{
			{Type: "HLS", Role: catalog.RoleMaster, URL: cdn.server.URL + "/live/playlist.m3u8"},
			{Type: "HLS", Role: catalog.RoleVariant, URL: cdn.chunklistURL()},
		}
	}

	stations, err := catalog.New([]catalog.Station{{ID: testStationID, Name: "Test FM", Streams: streams}})
	require.NoError(t, err)

	hlsConfig := hls.DefaultConfig()
	hlsConfig.SegmentTimeout = 2 * time.Second
	hlsConfig.ChunklistTimeout = 2 * time.Second

	var client *http.Client
	if cdn != nil {
		client = cdn.server.Client()
	}
	fetcher := hls.NewSegmentFetcher(client, hlsConfig, nil)

	config := DefaultConfig()
	config.FreshnessDelay = 0

	s, err := New(config, stations, fetcher, recognizer, nil)
	require.NoError(t, err)
	return s
}

func TestRecognizeMatchStopsFurtherWindows(t *testing.T) {
	cdn := newFakeCDN(t, 6)
	recognizer := &fakeRecognizer{responses: []string{
		`{"status":"success","result":null}`,
		`{"status":"success","result":{"artist":"Teresa Teng","title":"Tian Mi Mi"}}`,
	}}
	recorder := &countingRecorder{}

	s := newTestSampler(t, cdn, recognizer)
	s.SetRecorder(recorder)

	outcome, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeMatched, outcome.Kind)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "Teresa Teng", outcome.Result.Artist)
	assert.Equal(t, 2, recognizer.callCount())

	require.Len(t, outcome.Attempts, 2)
	assert.Equal(t, hls.WindowEarly, outcome.Attempts[0].Position)
	assert.Equal(t, AttemptNoMatch, outcome.Attempts[0].Result)
	assert.Equal(t, hls.WindowMiddle, outcome.Attempts[1].Position)
	assert.Equal(t, AttemptMatched, outcome.Attempts[1].Result)

	// the late window (indices 2..4) is never fetched, so media_104 is untouched
	assert.NotContains(t, cdn.requested(), "media_104.aac")
	assert.NotContains(t, cdn.requested(), "media_105.aac")

	body, err := outcome.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","result":{"artist":"Teresa Teng","title":"Tian Mi Mi"}}`, string(body))

	assert.Equal(t, []string{string(OutcomeMatched)}, recorder.outcomes)
	assert.Equal(t, []string{"early:no_match", "middle:matched"}, recorder.windows)
}

func TestRecognizeCombinesWindowInOrder(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	recognizer := &fakeRecognizer{responses: []string{
		`{"status":"success","result":{"artist":"A","title":"B"}}`,
	}}

	s := newTestSampler(t, cdn, recognizer)

	_, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	require.Equal(t, 1, recognizer.callCount())
	expected := hls.CombineSegments([][]byte{
		segmentData(0, 10000),
		segmentData(1, 10001),
		segmentData(2, 10002),
	})
	assert.Equal(t, expected, recognizer.calls[0])
}

func TestRecognizeAllNullReturnsLastResponse(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	recognizer := &fakeRecognizer{responses: []string{
		`{"status":"success","result":null,"request":"early"}`,
		`{"status":"success","result":null,"request":"middle"}`,
		`{"status":"success","result":null,"request":"late"}`,
	}}

	s := newTestSampler(t, cdn, recognizer)

	outcome, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, outcome.Kind)
	assert.Equal(t, 3, recognizer.callCount())
	assert.Len(t, outcome.Attempts, 3)

	body, err := outcome.Body()
	require.NoError(t, err)
	assert.Equal(t, `{"status":"success","result":null,"request":"late"}`, string(body))
}

func TestRecognizeServiceErrorIsPassedThrough(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	serviceError := `{"status":"error","error":{"error_code":900,"error_message":"authorization failed"}}`
	recognizer := &fakeRecognizer{responses: []string{serviceError, serviceError, serviceError}}

	s := newTestSampler(t, cdn, recognizer)

	outcome, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAttemptFailed, outcome.Kind)
	assert.Equal(t, "authorization failed", outcome.Reason)

	body, err := outcome.Body()
	require.NoError(t, err)
	assert.Equal(t, serviceError, string(body))
}

func TestRecognizeCallFailuresYieldNullResult(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	callErr := errors.New("connection refused")
	recognizer := &fakeRecognizer{errs: []error{callErr, callErr, callErr}}

	s := newTestSampler(t, cdn, recognizer)

	outcome, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAttemptFailed, outcome.Kind)
	assert.Equal(t, "connection refused", outcome.Reason)
	assert.Equal(t, 3, recognizer.callCount())
	for _, attempt := range outcome.Attempts {
		assert.Equal(t, AttemptCallFailed, attempt.Result)
	}

	body, err := outcome.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","result":null}`, string(body))
}

func TestRecognizeCallFailureThenNoMatch(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	recognizer := &fakeRecognizer{
		errs:      []error{errors.New("timeout"), nil, nil},
		responses: []string{"", `{"status":"success","result":null,"n":2}`, `{"status":"success","result":null,"n":3}`},
	}

	s := newTestSampler(t, cdn, recognizer)

	outcome, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, outcome.Kind)
	body, err := outcome.Body()
	require.NoError(t, err)
	assert.Equal(t, `{"status":"success","result":null,"n":3}`, string(body))
}

func TestRecognizeSkipsInvalidSegments(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	cdn.setSegment("media_101.aac", nil)
	cdn.setSegment("media_102.aac", segmentData(2, 9999))

	recognizer := &fakeRecognizer{responses: []string{
		`{"status":"success","result":{"artist":"A","title":"B"}}`,
	}}

	s := newTestSampler(t, cdn, recognizer)

	outcome, err := s.Recognize(context.Background(), testStationID)
	require.NoError(t, err)

	require.Equal(t, 1, recognizer.callCount())
	assert.Equal(t, segmentData(0, 10000), recognizer.calls[0])

	require.Len(t, outcome.Attempts, 1)
	assert.Equal(t, 1, outcome.Attempts[0].SegmentsValid)
	assert.Equal(t, 2, outcome.Attempts[0].SegmentsFailed)
	assert.Equal(t, 10000, outcome.Attempts[0].Bytes)
}

func TestRecognizeWithoutValidAudio(t *testing.T) {
	t.Run("all segments too small", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		for i := range 5 {
			cdn.setSegment(fmt.Sprintf("media_%d.aac", 100+i), segmentData(i, 9999))
		}
		recognizer := &fakeRecognizer{}

		s := newTestSampler(t, cdn, recognizer)

		outcome, err := s.Recognize(context.Background(), testStationID)
		require.NoError(t, err)

		assert.Equal(t, 0, recognizer.callCount())
		assert.Equal(t, OutcomeAttemptFailed, outcome.Kind)
		assert.Equal(t, NoAudioMessage, outcome.Reason)
		assert.Len(t, outcome.Attempts, 3)

		body, err := outcome.Body()
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success","result":null,"error":{"error_message":"No valid audio segments found with sufficient content"}}`, string(body))
	})

	t.Run("chunklist without segments", func(t *testing.T) {
		cdn := newFakeCDN(t, 0)
		cdn.setChunklist(hls.TestChunklistNoSegments)
		recognizer := &fakeRecognizer{}

		s := newTestSampler(t, cdn, recognizer)

		outcome, err := s.Recognize(context.Background(), testStationID)
		require.NoError(t, err)

		assert.Equal(t, 0, recognizer.callCount())
		assert.Equal(t, NoAudioMessage, outcome.Reason)
		assert.Equal(t, []string{"chunklist.m3u8"}, cdn.requested())

		body, err := outcome.Body()
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success","result":null,"error":{"error_message":"No valid audio segments found with sufficient content"}}`, string(body))
	})
}

func TestRecognizeRequestErrors(t *testing.T) {
	t.Run("missing station id", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		s := newTestSampler(t, cdn, &fakeRecognizer{})

		_, err := s.Recognize(context.Background(), "   ")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.ErrCodeMissingParameter))
		assert.Equal(t, "Station ID is required", err.Error())
		assert.Empty(t, cdn.requested())
	})

	t.Run("unknown station", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		s := newTestSampler(t, cdn, &fakeRecognizer{})

		_, err := s.Recognize(context.Background(), "other-fm")
		assert.True(t, common.IsCode(err, common.ErrCodeStationNotFound))
		assert.Empty(t, cdn.requested())
	})

	t.Run("no playable stream", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		recognizer := &fakeRecognizer{}
		s := newTestSampler(t, cdn, recognizer, catalog.StreamVariant{
			Type: "icecast", Role: catalog.RoleMaster, URL: cdn.server.URL + "/live.mp3",
		})

		_, err := s.Recognize(context.Background(), testStationID)
		assert.True(t, common.IsCode(err, common.ErrCodeNoPlayableStream))
		assert.Empty(t, cdn.requested())
		assert.Equal(t, 0, recognizer.callCount())
	})

	t.Run("station without streams", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		recognizer := &fakeRecognizer{}
		s := newTestSampler(t, cdn, recognizer)

		stations, err := catalog.New([]catalog.Station{{ID: "silent-fm", Name: "Silent FM"}})
		require.NoError(t, err)
		s.stations = stations

		_, err = s.Recognize(context.Background(), "silent-fm")
		assert.True(t, common.IsCode(err, common.ErrCodeNoPlayableStream))

		_, err = s.DownloadSample(context.Background(), "silent-fm")
		assert.True(t, common.IsCode(err, common.ErrCodeNoPlayableStream))

		assert.Empty(t, cdn.requested())
		assert.Equal(t, 0, recognizer.callCount())
	})

	t.Run("chunklist unavailable", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		s := newTestSampler(t, cdn, &fakeRecognizer{}, catalog.StreamVariant{
			Type: "HLS", Role: catalog.RoleVariant, URL: cdn.server.URL + "/missing/chunklist.m3u8",
		})

		_, err := s.Recognize(context.Background(), testStationID)
		assert.True(t, common.IsCode(err, common.ErrCodeFetchFailed))
	})
}

func TestRecorderStationLabels(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	recorder := &countingRecorder{}
	s := newTestSampler(t, cdn, &fakeRecognizer{})
	s.SetRecorder(recorder)

	for i := range 20 {
		_, err := s.Recognize(context.Background(), fmt.Sprintf("bogus-%d", i))
		require.Error(t, err)
	}
	_, err := s.Recognize(context.Background(), "  ")
	require.Error(t, err)
	_, err = s.DownloadSample(context.Background(), "bogus-dl")
	require.Error(t, err)

	_, err = s.Recognize(context.Background(), " "+testStationID+" ")
	require.NoError(t, err)
	_, err = s.DownloadSample(context.Background(), testStationID)
	require.NoError(t, err)

	labels := make(map[string]int)
	for _, station := range recorder.stations {
		labels[station]++
	}
	assert.Equal(t, map[string]int{UnknownStation: 22, testStationID: 2}, labels)
	assert.Contains(t, recorder.outcomes, "station_not_found")
	assert.Contains(t, recorder.outcomes, "missing_parameter")
}

func TestRecognizeFreshnessDelayHonoursContext(t *testing.T) {
	cdn := newFakeCDN(t, 5)
	s := newTestSampler(t, cdn, &fakeRecognizer{})
	s.config.FreshnessDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Recognize(ctx, testStationID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, cdn.requested())
}

func TestDownloadSample(t *testing.T) {
	fixed := time.UnixMilli(1735689600123)

	t.Run("first segment only", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		recognizer := &fakeRecognizer{}
		recorder := &countingRecorder{}

		s := newTestSampler(t, cdn, recognizer)
		s.SetRecorder(recorder)
		s.now = func() time.Time { return fixed }
		s.config.FreshnessDelay = time.Hour

		sample, err := s.DownloadSample(context.Background(), testStationID)
		require.NoError(t, err)

		assert.Equal(t, segmentData(0, 10000), sample.Data)
		assert.Equal(t, "audio/aac", sample.ContentType)
		assert.Equal(t, "radio-sample-test-fm-1735689600123.aac", sample.Filename)
		assert.Equal(t, 10000, sample.Size)
		assert.Equal(t, []string{"chunklist.m3u8", "media_100.aac"}, cdn.requested())
		assert.Equal(t, 0, recognizer.callCount())
		assert.Equal(t, []string{"ok"}, recorder.sampleCalls)
	})

	t.Run("first segment too small", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		cdn.setSegment("media_100.aac", segmentData(0, 9999))
		s := newTestSampler(t, cdn, &fakeRecognizer{})

		_, err := s.DownloadSample(context.Background(), testStationID)
		assert.True(t, common.IsCode(err, common.ErrCodeSegmentTooSmall))
		assert.Equal(t, []string{"chunklist.m3u8", "media_100.aac"}, cdn.requested())
	})

	t.Run("first segment missing", func(t *testing.T) {
		cdn := newFakeCDN(t, 5)
		cdn.setSegment("media_100.aac", nil)
		s := newTestSampler(t, cdn, &fakeRecognizer{})

		_, err := s.DownloadSample(context.Background(), testStationID)
		assert.True(t, common.IsCode(err, common.ErrCodeFetchFailed))
	})

	t.Run("no segments", func(t *testing.T) {
		cdn := newFakeCDN(t, 0)
		s := newTestSampler(t, cdn, &fakeRecognizer{})

		_, err := s.DownloadSample(context.Background(), testStationID)
		assert.True(t, common.IsCode(err, common.ErrCodeNoSegmentsFound))
	})

	t.Run("missing station id", func(t *testing.T) {
		s := newTestSampler(t, newFakeCDN(t, 1), &fakeRecognizer{})

		_, err := s.DownloadSample(context.Background(), "")
		assert.True(t, common.IsCode(err, common.ErrCodeMissingParameter))
	})
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
