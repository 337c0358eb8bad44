package gateway

import "go.opentelemetry.io/otel"

const scopeName = "github.com/aashishsingla567/openclaw-assistant/core/gateway"

var tracer = otel.Tracer(scopeName)
