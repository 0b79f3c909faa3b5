// SPDX-License-Identifier: EPL-2.0

package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tucommenceapousser/squarew"
	"github.com/tucommenceapousser/squarew/audio"
	"github.com/tucommenceapousser/squarew/formats/wav"
	"github.com/tucommenceapousser/squarew/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Addr:            "127.0.0.1:0",
		MaxUploadMB:     4,
		ArchiveName:     "square_wave_files.zip",
		ShutdownTimeout: time.Second,
		SampleRate:      44100,
		Mode:            squarew.ModeSign,
		Threshold:       0.1,
		CutoffHz:        3000,
		FilterOrder:     5,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	s, err := New(cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return s
}

func toneWAV(t *testing.T, frames int) []byte {
	t.Helper()

	samples := make([]int16, frames)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}

	var buf bytes.Buffer
	require.NoError(t, wav.WriteWAV16(&buf, 44100, samples))
	return buf.Bytes()
}

type upload struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files []upload, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return body, mw.FormDataContentType()
}

func postUpload(t *testing.T, s *Server, files []upload, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodePCM(t *testing.T, data []byte) []float64 {
	t.Helper()

	src, err := wav.Decoder{}.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 44100, src.SampleRate())
	require.Equal(t, 1, src.Channels())

	samples, err := audio.ReadMono(src, 44100, 1024)
	require.NoError(t, err)
	return samples
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = b
	}
	return out
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Mode = squarew.Mode(9)

	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="files"`)
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
	assert.Contains(t, rec.Body.String(), `accept=".aif,.aiff,.flac,.mp3,.ogg,.wav"`)
	assert.Contains(t, rec.Body.String(), `value="sign" checked`)
	assert.Contains(t, rec.Body.String(), `name="lowpass" value="on">`)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex_ConfiguredDefaults(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Mode = squarew.ModeThreshold
	cfg.Threshold = 0.25
	cfg.LowPass = true
	cfg.CutoffHz = 1500
	cfg.SampleRate = 22050
	s := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `value="threshold" checked`)
	assert.NotContains(t, body, `value="sign" checked`)
	assert.Contains(t, body, `name="threshold" value="0.25"`)
	assert.Contains(t, body, `name="lowpass" value="on" checked`)
	assert.Contains(t, body, `name="cutoff" value="1500" min="1" max="11024"`)

	hidden := strings.Index(body, `type="hidden" name="lowpass" value="off"`)
	box := strings.Index(body, `type="checkbox" name="lowpass"`)
	require.GreaterOrEqual(t, hidden, 0)
	assert.Less(t, hidden, box, "the checkbox must follow the hidden default")
}

func TestRequestOptions_LowPassToggle(t *testing.T) {
	t.Parallel()

	on := squarew.DefaultOptions()
	on.LowPass = true
	off := squarew.DefaultOptions()

	tests := []struct {
		name   string
		base   squarew.Options
		values map[string][]string
		want   bool
	}{
		{"unchecked box turns off a server default", on, map[string][]string{"lowpass": {"off"}}, false},
		{"checked box follows the hidden field", off, map[string][]string{"lowpass": {"off", "on"}}, true},
		{"field absent keeps the default", on, map[string][]string{}, true},
		{"single value", off, map[string][]string{"lowpass": {"yes"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, err := requestOptions(tt.base, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.LowPass)
		})
	}
}

func TestRequestOptions_LastValueWins(t *testing.T) {
	t.Parallel()

	opts, err := requestOptions(squarew.DefaultOptions(), map[string][]string{
		"mode":   {"sign", "threshold"},
		"cutoff": {"not a number", " 2500 "},
	})
	require.NoError(t, err)
	assert.Equal(t, squarew.ModeThreshold, opts.Mode)
	assert.Equal(t, 2500.0, opts.CutoffHz)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestFormats(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Formats []string `json:"formats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"aif", "aiff", "flac", "mp3", "ogg", "wav"}, resp.Formats)
}

func TestUpload_SingleFile(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s, []upload{{"files", "tone.wav", toneWAV(t, 4410)}}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=tone_square_wave.wav`, rec.Header().Get("Content-Disposition"))

	samples := decodePCM(t, rec.Body.Bytes())
	assert.Len(t, samples, 4410)
	for _, v := range samples {
		a := math.Abs(v)
		require.True(t, a == 0 || math.Abs(a-32767.0/32768.0) < 1e-6, "unexpected level %v", v)
	}
}

func TestUpload_MP3(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("../../formats/mp3/testdata/speech.mp3")
	require.NoError(t, err)

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s, []upload{{"files", "speech.mp3", data}}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=speech_square_wave.wav", rec.Header().Get("Content-Disposition"))

	samples := decodePCM(t, rec.Body.Bytes())
	assert.Len(t, samples, 23039)
	for _, v := range samples {
		a := math.Abs(v)
		require.True(t, a == 0 || math.Abs(a-32767.0/32768.0) < 1e-6, "unexpected level %v", v)
	}
}

func TestUpload_SingleFileField(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s, []upload{{"file", "dir/voice.WAV", toneWAV(t, 100)}}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "voice_square_wave.wav")
}

func TestUpload_ThresholdOverride(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s,
		[]upload{{"files", "tone.wav", toneWAV(t, 4410)}},
		map[string]string{"mode": "threshold", "threshold": "0.5", "lowpass": "on", "cutoff": "2000"},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var zeros, pos, neg int
	for _, v := range decodePCM(t, rec.Body.Bytes()) {
		switch {
		case v > 0:
			pos++
		case v < 0:
			neg++
		default:
			zeros++
		}
	}
	assert.Positive(t, zeros)
	assert.Positive(t, pos)
	assert.Positive(t, neg)
}

func TestUpload_MultipleFilesZip(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s, []upload{
		{"files", "a.wav", toneWAV(t, 500)},
		{"files", "b.wav", toneWAV(t, 700)},
		{"files", "sub/a.wav", toneWAV(t, 300)},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=square_wave_files.zip", rec.Header().Get("Content-Disposition"))
	assert.Empty(t, rec.Header().Get(FailedHeader))

	entries := zipEntries(t, rec.Body.Bytes())
	require.Len(t, entries, 3)
	assert.Len(t, decodePCM(t, entries["a_square_wave.wav"]), 500)
	assert.Len(t, decodePCM(t, entries["b_square_wave.wav"]), 700)
	assert.Len(t, decodePCM(t, entries["a_square_wave (2).wav"]), 300)
}

func TestUpload_PartialFailure(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s, []upload{
		{"files", "notes.txt", []byte("not audio")},
		{"files", "good.wav", toneWAV(t, 200)},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"notes.txt"`, rec.Header().Get(FailedHeader))

	entries := zipEntries(t, rec.Body.Bytes())
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, "good_square_wave.wav")
}

func TestUpload_AllFailed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := postUpload(t, s, []upload{
		{"files", "notes.txt", []byte("not audio")},
		{"files", "broken.wav", []byte("RIFF....")},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "notes.txt: unsupported audio format")
	assert.Contains(t, rec.Body.String(), "broken.wav:")
}

func TestUpload_TooLong(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxDuration = 50 * time.Millisecond
	s := newTestServer(t, cfg)

	rec := postUpload(t, s, []upload{{"files", "short.wav", toneWAV(t, 2205)}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = postUpload(t, s, []upload{{"files", "long.wav", toneWAV(t, 4410)}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "long.wav: audio exceeds the length limit")
}

func TestUpload_BadRequests(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	wavData := toneWAV(t, 100)

	tests := []struct {
		name   string
		files  []upload
		fields map[string]string
	}{
		{"no files", nil, map[string]string{"mode": "sign"}},
		{"empty file name", []upload{{"files", "", wavData}}, nil},
		{"other field", []upload{{"audio", "x.wav", wavData}}, nil},
		{"bad mode", []upload{{"files", "x.wav", wavData}}, map[string]string{"mode": "triangle"}},
		{"bad threshold", []upload{{"files", "x.wav", wavData}}, map[string]string{"mode": "threshold", "threshold": "2"}},
		{"threshold not a number", []upload{{"files", "x.wav", wavData}}, map[string]string{"threshold": "abc"}},
		{"bad lowpass", []upload{{"files", "x.wav", wavData}}, map[string]string{"lowpass": "sometimes"}},
		{"cutoff above nyquist", []upload{{"files", "x.wav", wavData}}, map[string]string{"lowpass": "true", "cutoff": "30000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := postUpload(t, s, tt.files, tt.fields)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxUploadMB = 1
	s := newTestServer(t, cfg)

	rec := postUpload(t, s, []upload{{"files", "big.wav", make([]byte, 2<<20)}}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
