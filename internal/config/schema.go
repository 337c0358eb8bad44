package config

import "github.com/invopop/jsonschema"

const redacted = "********"

// Schema describes the YAML settings file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true, AllowAdditionalProperties: false}
	schema := reflector.Reflect(&Settings{})
	schema.Title = "openclaw-assistant settings"
	return schema
}

// Redacted returns a copy of s with credentials masked.
func (s Settings) Redacted() Settings {
	mask := func(value string) string {
		if value == "" {
			return ""
		}
		return redacted
	}
	s.Wakeword.AccessKey = mask(s.Wakeword.AccessKey)
	s.SpeechToText.APIKey = mask(s.SpeechToText.APIKey)
	s.TextToSpeech.APIKey = mask(s.TextToSpeech.APIKey)
	return s
}
