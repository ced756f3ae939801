// chatwire reads a canonical conversation transcript, repairs tool-call
// identity drift, resolves the tool protocol for the task, and prints the
// backend wire request on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/aperrin/chatwire/internal/capability"
	"github.com/aperrin/chatwire/internal/config"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/reconcile"
	"github.com/aperrin/chatwire/internal/registration"
	"github.com/aperrin/chatwire/internal/taskstate"
	"github.com/aperrin/chatwire/internal/telemetry"
	"github.com/aperrin/chatwire/internal/tokens"
	"github.com/aperrin/chatwire/internal/tooldef"
	"github.com/aperrin/chatwire/internal/transcript"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath     = flag.String("config", "", "path to YAML config file")
		transcriptPath = flag.String("transcript", "", "path to transcript JSON (required)")
		taskID         = flag.String("task", "", "task id; a fresh one is minted when empty")
		rewindTo       = flag.Int("rewind", -1, "truncate the transcript at the user boundary nearest this turn index")
		clearTask      = flag.Bool("clear-task", false, "drop the task's protocol lock and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdown, err := telemetry.InitTracer("chatwire", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx := context.Background()

	store, err := taskstate.New(cfg.State.Path)
	if err != nil {
		log.Fatalf("Failed to open task state: %v", err)
	}
	defer store.Close()

	task := *taskID
	if task == "" {
		task = uuid.NewString()
		logger.Info("minted task id", slog.String("task", task))
	}

	if *clearTask {
		if err := store.ClearTask(ctx, task); err != nil {
			log.Fatalf("Failed to clear task: %v", err)
		}
		logger.Info("task cleared", slog.String("task", task))
		return
	}

	if *transcriptPath == "" {
		log.Fatal("-transcript is required")
	}
	turns, err := readTranscript(*transcriptPath)
	if err != nil {
		log.Fatalf("Failed to read transcript: %v", err)
	}

	if *rewindTo >= 0 {
		cut := reconcile.BoundaryAt(turns, *rewindTo)
		turns = reconcile.Truncate(turns, cut)
		logger.Info("transcript rewound",
			slog.Int("requested", *rewindTo),
			slog.Int("boundary", cut),
			slog.Int("turns", len(turns)),
		)
	}

	// Repair tool-call identity drift on the latest user turn before
	// anything downstream sees it.
	if n := len(turns); n > 0 && turns[n-1].Role == transcript.RoleUser {
		reporter := telemetry.NewReporter(logger)
		turns[n-1] = reconcile.Reconcile(ctx, turns[n-1], turns[:n-1], reporter)
	}

	caps, err := capability.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load capability registry: %v", err)
	}
	model, known := caps.Lookup(cfg.Backend.Name, cfg.Backend.Model)
	if !known {
		log.Fatalf("Unknown backend %q", cfg.Backend.Name)
	}

	registry := tooldef.NewRegistry(tooldef.NewCachedLoader(&tooldef.ManifestLoader{
		Resolve: manifestExec,
	}), logger)
	report, err := registry.Load(ctx, cfg.Tools.Dirs)
	if err != nil {
		log.Fatalf("Failed to load tool manifests: %v", err)
	}
	for _, f := range report.Failures {
		logger.Warn("tool manifest skipped",
			slog.String("file", f.File),
			slog.String("error", f.Err.Error()),
		)
	}

	resolved := resolveProtocol(ctx, store, task, turns, cfg, model, logger)
	if err := store.LockProtocol(ctx, task, resolved); err != nil {
		log.Fatalf("Failed to lock protocol: %v", err)
	}

	enc, ok := registration.Encoders()[encoder.Backend(cfg.Backend.Name)]
	if !ok {
		log.Fatalf("No encoder for backend %q", cfg.Backend.Name)
	}
	opts := encoder.Options{
		Protocol:          resolved,
		SystemPrompt:      cfg.Backend.SystemPrompt,
		Tools:             tooldef.SerializeAll(registry),
		MergeTrailingText: cfg.Backend.MergeResults,
		CacheHints:        cfg.Backend.CacheHints && model.SupportsPromptCache,
		ModelID:           cfg.Backend.Model,
	}

	estimate, err := tokens.NewCounter().CountTranscript(cfg.Backend.Model, opts.SystemPrompt, turns, opts.Tools)
	if err != nil {
		logger.Warn("token estimate unavailable", slog.String("error", err.Error()))
	} else {
		logger.Info("input token estimate",
			slog.Int("tokens", estimate),
			slog.Int("context_window", model.ContextWindow),
		)
	}

	wire, err := enc.Encode(turns, opts)
	if err != nil {
		log.Fatalf("Failed to encode transcript: %v", err)
	}
	fmt.Println(string(wire))
}

func readTranscript(path string) ([]transcript.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var turns []transcript.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return turns, nil
}

// resolveProtocol applies the precedence chain: the task's stored lock, the
// protocol re-derived from history when the lock is missing, then preference,
// model default, and capability gate.
func resolveProtocol(ctx context.Context, store *taskstate.Store, task string, turns []transcript.Turn, cfg *config.Config, model capability.Model, logger *slog.Logger) protocol.Protocol {
	locked, ok, err := store.LockedProtocol(ctx, task)
	if err != nil {
		logger.Warn("protocol lock unreadable", slog.String("error", err.Error()))
	}
	if !ok {
		if detected, found := protocol.Detect(turns); found {
			locked = detected
			logger.Info("protocol re-derived from history", slog.String("protocol", string(detected)))
		}
	}
	resolved := protocol.Resolve(protocol.ResolveInput{
		Locked:              locked,
		Preference:          protocol.Protocol(cfg.Backend.ToolProtocol),
		ModelDefault:        protocol.Protocol(model.DefaultToolProtocol),
		SupportsNativeTools: model.SupportsNativeTools,
	})
	logger.Info("protocol resolved",
		slog.String("task", task),
		slog.String("protocol", string(resolved)),
	)
	return resolved
}

// manifestExec backs manifest-declared tools in this encode-only command.
// Serialization needs the definition, not a live implementation.
func manifestExec(name string) tooldef.ExecuteFunc {
	return func(ctx context.Context, input map[string]any) (string, error) {
		return "", fmt.Errorf("tool %q is not executable in encode-only mode", name)
	}
}
