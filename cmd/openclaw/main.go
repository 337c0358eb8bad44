// Command openclaw runs the voice assistant and its hardware diagnostics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/internal/app"
	"github.com/aashishsingla567/openclaw-assistant/internal/config"
	"github.com/aashishsingla567/openclaw-assistant/internal/log"
	"github.com/aashishsingla567/openclaw-assistant/internal/metrics"
	"github.com/aashishsingla567/openclaw-assistant/internal/monitor"
	"github.com/aashishsingla567/openclaw-assistant/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/yaml.v3"
)

const usage = `usage: openclaw [--root DIR] <command> [flags]

commands:
  run          listen for the wake word and serve commands until interrupted
  monitor      like run, with a live terminal view of the pipeline
  diagnostics  devices | tts | stt | gateway | wakeword | pipeline
  config       show | schema | validate
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "openclaw: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("openclaw", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	root := global.String("root", "", "project root holding .env and the config file (default: working directory)")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errUsage
	}

	settings, err := config.Load(*root)
	if err != nil {
		return err
	}

	command, rest := global.Arg(0), global.Args()[1:]
	if command == "config" {
		return runConfig(settings, rest, stdout, stderr)
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	logger := log.Init(log.Options{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
		OTel:   settings.Log.OTel,
	})

	providers, err := telemetry.Init(ctx, settings.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shut down telemetry", "error", err)
		}
	}()

	switch command {
	case "run":
		return runAssistant(ctx, settings, logger, rest, stderr)
	case "monitor":
		return runMonitor(ctx, settings, logger)
	case "diagnostics":
		return runDiagnostics(ctx, settings, logger, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		global.Usage()
		return errUsage
	}
}

func runAssistant(ctx context.Context, settings config.Settings, logger *slog.Logger, args []string, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	if err := fs.Parse(args); err != nil {
		return err
	}

	runner, err := app.NewRunner(settings, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, runner.Close()) }()

	if *metricsAddr != "" {
		collector := metrics.NewCollector("openclaw", settings.Capture.SampleRate)
		runner.Runtime().Registry.RegisterObserver(collector.Observe)

		server := serveMetrics(*metricsAddr, collector, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = errors.Join(err, server.Shutdown(shutdownCtx))
		}()
	}

	release := app.HandleSignals(runner.Stop)
	defer release()

	return runner.Run(ctx)
}

func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(mux, "metrics"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return server
}

func runMonitor(ctx context.Context, settings config.Settings, logger *slog.Logger) (err error) {
	if err := settings.ValidateRuntimeAssets(true); err != nil {
		return err
	}

	var runner *app.Runner
	program := monitor.NewProgram(func() { runner.Stop() })

	// The view owns the terminal; only the OTel bridge may keep logging.
	runLogger := logger
	if !settings.Log.OTel {
		runLogger = slog.New(slog.DiscardHandler)
	}
	runner, err = app.NewRunner(settings,
		app.WithLogger(runLogger),
		app.WithOrchestratorOptions(orchestration.WithStateListener(program.SetState)),
	)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, runner.Close()) }()
	runner.Runtime().Registry.RegisterObserver(program.Observe)

	release := app.HandleSignals(runner.Stop)
	defer release()

	done := make(chan error, 1)
	go func() {
		runErr := runner.Run(ctx)
		program.Done(runErr)
		done <- runErr
	}()

	if err := program.Run(); err != nil {
		runner.Stop()
		<-done
		return fmt.Errorf("failed to run monitor view: %w", err)
	}
	runner.Stop()
	if runErr := <-done; runErr != nil {
		logger.Error("assistant stopped with error", "error", runErr)
		return runErr
	}
	return nil
}

func runDiagnostics(ctx context.Context, settings config.Settings, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: openclaw diagnostics devices|tts|stt|gateway|wakeword|pipeline [flags]")
		return errUsage
	}
	d := app.NewDiagnostics(settings, stdout, app.WithLogger(logger))

	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet("diagnostics "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch name {
	case "devices":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return d.Devices(ctx)

	case "tts":
		text := fs.String("text", "Testing text to speech.", "text to speak")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return d.TTS(ctx, *text)

	case "stt":
		seconds := fs.Float64("seconds", 3, "seconds to record")
		file := fs.String("file", "", "transcribe this WAV file instead of recording")
		save := fs.String("save", "", "save the recording to this WAV file")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return d.STT(ctx, app.STTOptions{
			Duration: secondsToDuration(*seconds),
			File:     *file,
			Save:     *save,
		})

	case "gateway", "openclaw":
		text := fs.String("text", "Ping", "text to send")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return d.Gateway(ctx, *text)

	case "wakeword":
		timeout := fs.Float64("timeout", 10, "seconds to wait for the wake word")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return d.Wakeword(ctx, secondsToDuration(*timeout))

	case "pipeline":
		var useGateway bool
		timeout := fs.Float64("timeout", 15, "seconds to wait for the wake word")
		file := fs.String("file", "", "replay this WAV file through the listener instead of waiting for the wake word")
		fs.BoolVar(&useGateway, "gateway", false, "send the transcript to the gateway")
		fs.BoolVar(&useGateway, "openclaw", false, "alias for --gateway")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return d.Pipeline(ctx, app.PipelineOptions{
			Timeout:    secondsToDuration(*timeout),
			UseGateway: useGateway,
			File:       *file,
		})

	default:
		fmt.Fprintf(stderr, "unknown diagnostic %q\n", name)
		return errUsage
	}
}

func runConfig(settings config.Settings, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: openclaw config show|schema|validate")
		return errUsage
	}

	switch args[0] {
	case "show":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(settings.Redacted()); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		return enc.Close()
	case "schema":
		data, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		_, err = fmt.Fprintf(stdout, "%s\n", data)
		return err
	case "validate":
		if err := settings.Validate(); err != nil {
			return err
		}
		if err := settings.ValidateRuntimeAssets(true); err != nil {
			return err
		}
		_, err := fmt.Fprintln(stdout, "Settings OK.")
		return err
	default:
		fmt.Fprintf(stderr, "unknown config command %q\n", args[0])
		return errUsage
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
