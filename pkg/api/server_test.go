package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/smfplay/pkg/midifile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func song(t *testing.T) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var conductor smf.Track
	conductor.Add(0, smf.Message([]byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}))
	conductor.Close(0)

	var melody smf.Track
	melody.Add(0, midi.NoteOn(1, 60, 100))
	melody.Add(96, midi.NoteOff(1, 60))
	melody.Close(0)

	for _, tr := range []smf.Track{conductor, melody} {
		if err := s.Add(tr); err != nil {
			t.Fatalf("smf Add() error = %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("smf WriteTo() error = %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, target string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("file", "song.mid")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, w.Body.String())
	}
	return m
}

func TestHealth(t *testing.T) {
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := httptest.NewRecorder()
		NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
		if m := decodeJSON(t, w); m["service"] != "smfplay" {
			t.Errorf("GET %s body = %v", path, m)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/check", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestCheck(t *testing.T) {
	w := upload(t, "/api/v1/check", song(t))
	if w.Code != http.StatusOK {
		t.Fatalf("check = %d: %s", w.Code, w.Body.String())
	}
	if m := decodeJSON(t, w); m["valid"] != true {
		t.Errorf("body = %v", m)
	}

	bad := song(t)
	bad = bad[:len(bad)-2]
	w = upload(t, "/api/v1/check", bad)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("check truncated = %d, want 422", w.Code)
	}
	m := decodeJSON(t, w)
	if m["valid"] != false || m["offset"] == nil {
		t.Errorf("body = %v", m)
	}
}

func TestCheckNoFile(t *testing.T) {
	w := upload(t, "/api/v1/check", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("check without file = %d, want 400", w.Code)
	}
}

func TestBadQuery(t *testing.T) {
	for _, q := range []string{"transpose=up", "speed=0", "bars=x", "track=0"} {
		w := upload(t, "/api/v1/analyze?"+q, song(t))
		if w.Code != http.StatusBadRequest {
			t.Errorf("analyze?%s = %d, want 400", q, w.Code)
		}
	}
}

func TestDump(t *testing.T) {
	w := upload(t, "/api/v1/dump", song(t))
	if w.Code != http.StatusOK {
		t.Fatalf("dump = %d: %s", w.Code, w.Body.String())
	}
	for _, want := range []string{"Format 1, division 96", "Set Tempo 500000", "ch1  on 60 100"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("dump misses %q:\n%s", want, w.Body.String())
		}
	}

	w = upload(t, "/api/v1/dump?debug=8", song(t))
	if strings.Contains(w.Body.String(), " on ") {
		t.Errorf("debug=8 traced notes:\n%s", w.Body.String())
	}
}

func TestAnalyze(t *testing.T) {
	w := upload(t, "/api/v1/analyze?speed=200", song(t))
	if w.Code != http.StatusOK {
		t.Fatalf("analyze = %d: %s", w.Code, w.Body.String())
	}
	m := decodeJSON(t, w)
	if m["ticks"] != float64(96) || m["seconds"] != float64(1) || m["notes"] != float64(1) {
		t.Errorf("body = %v", m)
	}
}

func TestExtract(t *testing.T) {
	w := upload(t, "/api/v1/extract?track=2&transpose=-12", song(t))
	if w.Code != http.StatusOK {
		t.Fatalf("extract = %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "audio/midi" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "song-extract.mid") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	f, err := midifile.Decode(w.Body.Bytes(), nil)
	if err != nil {
		t.Fatalf("Decode(extracted) error = %v", err)
	}
	if f.Header.Format != 0 || len(f.Tracks) != 1 {
		t.Errorf("extracted header = %+v", f.Header)
	}
}

func TestListFormatsAndPorts(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "gzip") {
		t.Errorf("formats = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ports", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ports = %d", w.Code)
	}
	if _, ok := decodeJSON(t, w)["ports"]; !ok {
		t.Errorf("ports missing from %s", w.Body.String())
	}
}
