package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/texttospeech"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

// Synthesize sends text followed by a flush and collects the streamed audio
// until Deepgram confirms the flush. Deepgram has no speed control, the
// voice speed is ignored.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice texttospeech.Voice) (waveform texttospeech.Waveform, err error) {
	ctx, span := tracer.Start(ctx, "deepgram synthesize")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	model := voiceModel(voice.Name)
	span.SetAttributes(attribute.String("request.model", model), attribute.Int("request.text_length", len(text)))
	if voice.Speed != 0 && voice.Speed != 1 {
		s.logger.Debug("deepgram speak ignores voice speed", "speed", voice.Speed)
	}

	conn, err := s.connectWebsocket(ctx, model)
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()
	stopClosing := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopClosing()

	if err := conn.WriteJSON(speakMessage{Type: "Speak", Text: text}); err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("failed to send text to deepgram through websocket: %w", err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	pcm, err := s.readUntilFlushed(conn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return texttospeech.Waveform{}, ctxErr
		}
		return texttospeech.Waveform{}, err
	}

	if err := conn.WriteJSON(closeMsg); err != nil {
		s.logger.Debug("failed to send deepgram close message", "error", err)
	}

	samples, err := audio.FromLinear16(pcm)
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("invalid deepgram audio: %w", err)
	}
	span.SetAttributes(attribute.Int("response.samples", len(samples)))
	return texttospeech.Waveform{Samples: samples, SampleRate: s.sampleRate}, nil
}

func (s *Synthesizer) connectWebsocket(ctx context.Context, model string) (*websocket.Conn, error) {
	speakURL, err := url.Parse(s.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	urlValues := speakURL.Query()
	urlValues.Set("encoding", audio.Linear16)
	urlValues.Set("sample_rate", strconv.Itoa(s.sampleRate))
	urlValues.Set("model", model)
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := s.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

var errClosedBeforeFlush = errors.New("deepgram closed the stream before flushing")

func (s *Synthesizer) readUntilFlushed(conn *websocket.Conn) ([]byte, error) {
	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil, errClosedBeforeFlush
			}
			return nil, fmt.Errorf("websocket read error: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type    string `json:"type"`
				ErrMsg  string `json:"err_msg"`
				Warning string `json:"warn_msg"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				s.logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return pcm, nil
			case "Error":
				return nil, fmt.Errorf("deepgram error: %s", parsedMsg.ErrMsg)
			case "Warning":
				s.logger.Warn("deepgram warning", "message", parsedMsg.Warning)
			}
		}
	}
}
