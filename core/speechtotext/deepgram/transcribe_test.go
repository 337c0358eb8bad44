package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/gorilla/websocket"
)

type testListenServer struct {
	receivedBytes atomic.Int64
	authorization atomic.Value
	query         atomic.Value
	results       []string
}

func (s *testListenServer) handler(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		s.authorization.Store(r.Header.Get("Authorization"))
		s.query.Store(r.URL.RawQuery)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage {
				s.receivedBytes.Add(int64(len(msg)))
				continue
			}
			if strings.Contains(string(msg), "CloseStream") {
				break
			}
		}

		for _, message := range s.results {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func resultMessage(t *testing.T, transcript string, isFinal bool) string {
	payload, err := json.Marshal(map[string]any{
		"type":         "Results",
		"is_final":     isFinal,
		"speech_final": isFinal,
		"channel": map[string]any{
			"alternatives": []map[string]any{{"transcript": transcript, "confidence": 0.9}},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	return string(payload)
}

func newTestClient(t *testing.T, server *httptest.Server) *TranscriptionClient {
	client, err := NewTranscriptionClient("test-key",
		WithListenURL("ws"+strings.TrimPrefix(server.URL, "http")),
		WithModel("nova-3"),
	)
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}
	return client
}

func TestTranscribeSegmentsCollectsFinalResults(t *testing.T) {
	listen := &testListenServer{}
	listen.results = []string{
		resultMessage(t, "turn on", true),
		resultMessage(t, "the li", false),
		resultMessage(t, " the lights ", true),
		resultMessage(t, "", true),
		`{"type":"Metadata","request_id":"abc"}`,
	}
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	samples := make(audio.Buffer, 10000)
	segments, err := newTestClient(t, server).TranscribeSegments(context.Background(), samples, 16000)
	if err != nil {
		t.Fatalf("expected transcription to succeed, got %v", err)
	}

	if len(segments) != 2 || segments[0] != "turn on" || segments[1] != "the lights" {
		t.Fatalf("expected final segments [turn on, the lights], got %q", segments)
	}
	if got := listen.receivedBytes.Load(); got != 20000 {
		t.Fatalf("expected 20000 audio bytes streamed, got %d", got)
	}
	if got := listen.authorization.Load(); got != "Token test-key" {
		t.Fatalf("expected token authorization header, got %q", got)
	}
	query, _ := listen.query.Load().(string)
	if !strings.Contains(query, "sample_rate=16000") || !strings.Contains(query, "encoding=linear16") {
		t.Fatalf("expected encoding parameters in query, got %q", query)
	}
}

func TestTranscribeSegmentsEndsOnNormalClose(t *testing.T) {
	listen := &testListenServer{results: []string{resultMessage(t, "hello", true)}}
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	segments, err := newTestClient(t, server).TranscribeSegments(context.Background(), make(audio.Buffer, 100), 16000)
	if err != nil {
		t.Fatalf("expected transcription to succeed, got %v", err)
	}
	if len(segments) != 1 || segments[0] != "hello" {
		t.Fatalf("expected [hello], got %q", segments)
	}
}

func TestTranscribeSegmentsRejectsUnsupportedSampleRate(t *testing.T) {
	client, err := NewTranscriptionClient("test-key")
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}

	if _, err := client.TranscribeSegments(context.Background(), audio.Buffer{0}, 44100); !errors.Is(err, ErrUnsupportedSampleRate) {
		t.Fatalf("expected unsupported sample rate, got %v", err)
	}
}

func TestNewTranscriptionClientRequiresAPIKey(t *testing.T) {
	if _, err := NewTranscriptionClient(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}

func TestTranscribeSegmentsLogsToConfiguredLogger(t *testing.T) {
	listen := &testListenServer{results: []string{"not json", resultMessage(t, "hello", true)}}
	server := httptest.NewServer(listen.handler(t))
	defer server.Close()

	var logs bytes.Buffer
	client, err := NewTranscriptionClient("test-key",
		WithListenURL("ws"+strings.TrimPrefix(server.URL, "http")),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}

	segments, err := client.TranscribeSegments(context.Background(), make(audio.Buffer, 100), 16000)
	if err != nil {
		t.Fatalf("expected transcription to succeed, got %v", err)
	}
	if len(segments) != 1 || segments[0] != "hello" {
		t.Fatalf("expected [hello], got %q", segments)
	}
	if !strings.Contains(logs.String(), "failed to unmarshal deepgram message") {
		t.Fatalf("expected unmarshal warning in configured logger, got %q", logs.String())
	}
}
