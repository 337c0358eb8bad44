// Package deepgram recognizes recorded commands with the Deepgram streaming
// listen API. The whole buffer is streamed, the stream is closed and the
// finalized transcript segments are collected until Deepgram hangs up.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en-US"

	// audioChunkBytes is ~256 ms of 16 kHz linear16 audio.
	audioChunkBytes = 8192
)

var ErrMissingAPIKey = errors.New("deepgram api key not found")

type TranscriptionClient struct {
	apiKey    string
	model     string
	language  string
	listenURL string
	dialer    *websocket.Dialer
	logger    *slog.Logger
}

type ClientOption func(*TranscriptionClient)

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithLanguage(language string) ClientOption {
	return func(c *TranscriptionClient) {
		if language != "" {
			c.language = language
		}
	}
}

// WithListenURL points the client at a different listen endpoint.
func WithListenURL(listenURL string) ClientOption {
	return func(c *TranscriptionClient) { c.listenURL = listenURL }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *TranscriptionClient) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewTranscriptionClient(apiKey string, opts ...ClientOption) (*TranscriptionClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := &TranscriptionClient{
		apiKey:    apiKey,
		model:     defaultModel,
		language:  defaultLanguage,
		listenURL: defaultListenURL,
		dialer:    websocket.DefaultDialer,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *TranscriptionClient) TranscribeSegments(ctx context.Context, samples audio.Buffer, sampleRate int) (segments []string, err error) {
	ctx, span := tracer.Start(ctx, "deepgram transcribe")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(attribute.String("request.model", c.model), attribute.Int("audio.samples", samples.Len()))

	if err := checkSampleRate(sampleRate); err != nil {
		return nil, err
	}

	conn, err := c.connectWebsocket(ctx, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()
	stopClosing := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopClosing()

	writeErr := make(chan error, 1)
	go func() { writeErr <- streamAudio(conn, samples.Linear16()) }()

	segments, err = c.readSegments(conn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := <-writeErr; err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("response.segments", len(segments)))
	return segments, nil
}

func (c *TranscriptionClient) connectWebsocket(ctx context.Context, sampleRate int) (*websocket.Conn, error) {
	listenUrl, err := url.Parse(c.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenUrl.Query()
	queryParams.Set("encoding", audio.Linear16)
	queryParams.Set("sample_rate", strconv.Itoa(sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")
	listenUrl.RawQuery = queryParams.Encode()

	conn, _, err := c.dialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func streamAudio(conn *websocket.Conn, data []byte) error {
	for offset := 0; offset < len(data); offset += audioChunkBytes {
		chunk := data[offset:min(offset+audioChunkBytes, len(data))]
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream through websocket: %w", err)
	}
	return nil
}

// readSegments collects finalized transcripts until the metadata message or
// a normal close ends the stream.
func (c *TranscriptionClient) readSegments(conn *websocket.Conn) ([]string, error) {
	var segments []string
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return segments, nil
			}
			return nil, fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var parsedMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			c.logger.Warn("failed to unmarshal deepgram message", "error", err)
			continue
		}

		switch api.TypeResponse(parsedMsg.Type) {
		case api.TypeMessageResponse:
			var msgResp api.MessageResponse
			if err := json.Unmarshal(msg, &msgResp); err != nil {
				return nil, fmt.Errorf("failed to unmarshal deepgram results: %w", err)
			}
			if msgResp.IsFinal && len(msgResp.Channel.Alternatives) > 0 {
				if transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); transcript != "" {
					segments = append(segments, transcript)
				}
			}
		case api.TypeMetadataResponse:
			return segments, nil
		}
	}
}
