package events

const (
	// KindWakeDetected identifies a wake phrase detection.
	KindWakeDetected Kind = "pipeline.wake_detected"
	// KindListenStarted identifies the start of command capture.
	KindListenStarted Kind = "pipeline.listen_started"
	// KindAudioCaptured identifies the end of command capture.
	KindAudioCaptured Kind = "pipeline.audio_captured"
	// KindTextTranscribed identifies a finished transcription.
	KindTextTranscribed Kind = "pipeline.text_transcribed"
	// KindActionCompleted identifies a gateway response.
	KindActionCompleted Kind = "pipeline.action_completed"
	// KindResponseSpoken identifies finished response playback.
	KindResponseSpoken Kind = "pipeline.response_spoken"
	// KindPipelineError identifies a failed cycle or wake wait.
	KindPipelineError Kind = "pipeline.error"
)

// WakeDetected marks a wake phrase detection.
type WakeDetected struct {
	Base
	Label string
}

// NewWakeDetected creates a wake detected event.
func NewWakeDetected(cycleID, label string) WakeDetected {
	return WakeDetected{Base: NewBase(KindWakeDetected, cycleID), Label: label}
}

// ListenStarted marks the start of command capture.
type ListenStarted struct {
	Base
	Prompt string
}

// NewListenStarted creates a listen started event.
func NewListenStarted(cycleID, prompt string) ListenStarted {
	return ListenStarted{Base: NewBase(KindListenStarted, cycleID), Prompt: prompt}
}

// AudioCaptured carries the size of the captured command.
type AudioCaptured struct {
	Base
	SampleCount int
}

// NewAudioCaptured creates an audio captured event.
func NewAudioCaptured(cycleID string, sampleCount int) AudioCaptured {
	return AudioCaptured{Base: NewBase(KindAudioCaptured, cycleID), SampleCount: sampleCount}
}

// TextTranscribed carries the trimmed transcript.
type TextTranscribed struct {
	Base
	Text string
}

// NewTextTranscribed creates a text transcribed event.
func NewTextTranscribed(cycleID, text string) TextTranscribed {
	return TextTranscribed{Base: NewBase(KindTextTranscribed, cycleID), Text: text}
}

// ActionCompleted carries the prompt sent to the gateway and its response.
type ActionCompleted struct {
	Base
	Prompt   string
	Response string
}

// NewActionCompleted creates an action completed event.
func NewActionCompleted(cycleID, prompt, response string) ActionCompleted {
	return ActionCompleted{Base: NewBase(KindActionCompleted, cycleID), Prompt: prompt, Response: response}
}

// ResponseSpoken marks finished response playback.
type ResponseSpoken struct {
	Base
	Response string
}

// NewResponseSpoken creates a response spoken event.
func NewResponseSpoken(cycleID, response string) ResponseSpoken {
	return ResponseSpoken{Base: NewBase(KindResponseSpoken, cycleID), Response: response}
}

// PipelineError carries a failure reported by the outer loop.
type PipelineError struct {
	Base
	Stage string
	Error string
}

// NewPipelineError creates a pipeline error event.
func NewPipelineError(cycleID, stage, err string) PipelineError {
	return PipelineError{Base: NewBase(KindPipelineError, cycleID), Stage: stage, Error: err}
}
