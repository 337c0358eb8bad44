package miniaudio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/aashishsingla567/openclaw-assistant/core/audio/miniaudio"

var logger = otelslog.NewLogger(scopeName)
