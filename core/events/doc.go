// Package events defines the typed pipeline event contract.
//
// Events are immutable values created by the orchestrator and delivered
// synchronously, in emission order, to every registered observer. Within one
// cycle they are always emitted in this order; only the last two can be
// skipped:
//
//   - WakeDetected (pipeline.wake_detected): the wake phrase was heard.
//   - ListenStarted (pipeline.listen_started): command capture is about to
//     start; carries the configured listen prompt.
//   - AudioCaptured (pipeline.audio_captured): capture finished; carries the
//     number of samples recorded.
//   - TextTranscribed (pipeline.text_transcribed): trimmed transcript, may be
//     empty in which case the cycle ends here.
//   - ActionCompleted (pipeline.action_completed): the gateway answered the
//     prompt.
//   - ResponseSpoken (pipeline.response_spoken): the non-empty response was
//     played back.
//
// PipelineError (pipeline.error) is emitted by the outer loop when a cycle or
// the wake wait fails. It names the failing stage and carries the error text.
package events
