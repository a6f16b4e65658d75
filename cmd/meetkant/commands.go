package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	render "github.com/hyperjump/meetkant/internal/cli"
	"github.com/hyperjump/meetkant/internal/config"
	"github.com/hyperjump/meetkant/internal/corpus"
	"github.com/hyperjump/meetkant/internal/embedding"
	"github.com/hyperjump/meetkant/internal/models"
	"github.com/hyperjump/meetkant/internal/retriever"
	"github.com/hyperjump/meetkant/internal/storage"
	"github.com/hyperjump/meetkant/internal/vector"
	"github.com/hyperjump/meetkant/internal/watcher"
	"github.com/hyperjump/meetkant/pkg/utils"
)

// setup loads the config named by the global flags and builds the logger.
func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, resolvedConfigPath, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || c.Bool("debug")
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("corpus_dir", cfg.Corpus.Dir),
		zap.String("snapshot_path", cfg.Index.SnapshotPath))
	return cfg, logger, nil
}

// Components holds initialized services.
type Components struct {
	Provider *embedding.Provider
	Service  *retriever.Service
}

func (c *Components) Close() {
	if c.Service != nil {
		_ = c.Service.Close()
	}
	if c.Provider != nil {
		_ = c.Provider.Close()
	}
}

func catalogLoader(cfg *config.Config, logger *zap.Logger) retriever.CatalogLoader {
	return func(context.Context) (*corpus.Catalog, error) {
		return corpus.Load(cfg.Corpus.Dir, cfg.Corpus.Extensions, corpus.WithLogger(logger))
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, forceRebuild bool) (*Components, error) {
	provider, err := embedding.NewProvider(ctx, cfg.Embedding, embedding.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}
	opts := []retriever.Option{
		retriever.WithLogger(logger),
		retriever.WithSnapshotPath(cfg.Index.SnapshotPath),
		retriever.WithIndexType(cfg.Index.Type),
		retriever.WithOversample(cfg.Retrieval.Oversample),
		retriever.WithBatchSize(cfg.Embedding.BatchSize),
	}
	if forceRebuild {
		opts = append(opts, retriever.WithForceRebuild())
	}
	svc, err := retriever.NewService(ctx, catalogLoader(cfg, logger), provider, opts...)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("failed to initialize retriever: %w", err)
	}
	return &Components{Provider: provider, Service: svc}, nil
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func buildCommand(c *cli.Context) error {
	format, err := render.ParseOutputFormat(c.String("output"))
	if err != nil {
		return err
	}
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	start := time.Now()
	components, err := initializeComponents(c.Context, cfg, logger, c.Bool("force"))
	if err != nil {
		return err
	}
	defer components.Close()

	stats := components.Service.Current().Stats()
	if format == render.OutputJSON {
		return render.WriteJSON(c.App.Writer, stats)
	}
	w := c.App.Writer
	action := "built"
	if stats.Loaded {
		action = "loaded from snapshot"
	}
	fmt.Fprintf(w, "index %s in %s\n", action, time.Since(start).Round(time.Millisecond))
	writeStats(w, stats, components.Provider.Selected())
	return nil
}

func writeStats(w io.Writer, stats retriever.Stats, sel embedding.Selection) {
	fmt.Fprintf(w, "passages:        %d\n", stats.Passages)
	fmt.Fprintf(w, "vectors:         %d\n", stats.Vectors)
	fmt.Fprintf(w, "dimensions:      %d\n", stats.Dimensions)
	fmt.Fprintf(w, "model:           %s (%s)\n", stats.ModelID, sel.Backend)
	if sel.Fallback {
		fmt.Fprintln(w, "                 # primary model unavailable, using fallback")
	}
	fmt.Fprintf(w, "index_type:      %s\n", stats.IndexType)
	if stats.SnapshotPath != "" {
		fmt.Fprintf(w, "snapshot_path:   %s\n", stats.SnapshotPath)
	}
	if stats.BuildID != "" {
		fmt.Fprintf(w, "build_id:        %s\n", stats.BuildID)
	}
	if stats.SampleFallback {
		fmt.Fprintln(w, "corpus:          built-in sample (no passages found in corpus dir)")
	}
}

func queryCommand(c *cli.Context) error {
	format, err := render.ParseOutputFormat(c.String("output"))
	if err != nil {
		return err
	}
	req := models.RetrieveRequest{
		Question: buildQuestion(c.Args().Slice()),
		TopK:     c.Int("top-k"),
		Lang:     c.String("lang"),
	}
	if c.Int("top-k") < 0 {
		return retriever.ErrInvalidTopK
	}
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := req.Validate(cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK); err != nil {
		return err
	}

	components, err := initializeComponents(c.Context, cfg, logger, false)
	if err != nil {
		return err
	}
	defer components.Close()

	results, err := components.Service.Retrieve(c.Context, req.Question, req.TopK, req.Lang)
	if err != nil {
		return err
	}
	return render.WriteResults(c.App.Writer, req.Question, req.Lang, results, format)
}

// statusReport is the shape of the status output.
type statusReport struct {
	ConfigPath    string               `json:"config_path"`
	CorpusDir     string               `json:"corpus_dir"`
	Passages      int                  `json:"passages"`
	SampleCorpus  bool                 `json:"sample_corpus"`
	Fingerprint   string               `json:"fingerprint"`
	IndexType     string               `json:"index_type"`
	FAISS         bool                 `json:"faiss_available"`
	PrimaryModel  string               `json:"primary_model"`
	FallbackModel string               `json:"fallback_model"`
	Snapshot      *vector.SnapshotMeta `json:"snapshot,omitempty"`
	SnapshotState string               `json:"snapshot_state"`
	Disk          storage.Footprint    `json:"disk"`
}

func statusCommand(c *cli.Context) error {
	format, err := render.ParseOutputFormat(c.String("output"))
	if err != nil {
		return err
	}
	cfg, resolvedConfigPath, err := loadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	catalog, err := corpus.Load(cfg.Corpus.Dir, cfg.Corpus.Extensions)
	if err != nil {
		return err
	}
	report := statusReport{
		ConfigPath:    resolvedConfigPath,
		CorpusDir:     cfg.Corpus.Dir,
		Passages:      catalog.Len(),
		SampleCorpus:  catalog.Fallback(),
		Fingerprint:   catalog.Fingerprint(),
		IndexType:     cfg.Index.Type,
		FAISS:         vector.IsFAISSAvailable(),
		PrimaryModel:  cfg.Embedding.Primary.Backend + ":" + cfg.Embedding.Primary.Name,
		FallbackModel: cfg.Embedding.Fallback.Backend + ":" + cfg.Embedding.Fallback.Name,
	}
	report.Snapshot, report.SnapshotState = snapshotState(cfg.Index.SnapshotPath, catalog)
	report.Disk, err = storage.Measure(map[string]string{
		"corpus":          cfg.Corpus.Dir,
		"snapshot":        cfg.Index.SnapshotPath,
		"embedding_cache": cfg.Embedding.CachePath,
	}, "corpus", "snapshot", "embedding_cache")
	if err != nil {
		return err
	}

	w := c.App.Writer
	if format == render.OutputJSON {
		return render.WriteJSON(w, report)
	}
	fmt.Fprintf(w, "config_path:     %s\n", report.ConfigPath)
	fmt.Fprintf(w, "corpus_dir:      %s\n", report.CorpusDir)
	fmt.Fprintf(w, "passages:        %d", report.Passages)
	if report.SampleCorpus {
		fmt.Fprint(w, "   # built-in sample corpus")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "index_type:      %s (faiss available: %t)\n", report.IndexType, report.FAISS)
	fmt.Fprintf(w, "primary_model:   %s\n", report.PrimaryModel)
	fmt.Fprintf(w, "fallback_model:  %s\n", report.FallbackModel)
	fmt.Fprintf(w, "snapshot:        %s\n", report.SnapshotState)
	if s := report.Snapshot; s != nil {
		fmt.Fprintf(w, "  model:         %s (%d dims)\n", s.ModelID, s.Dimensions)
		fmt.Fprintf(w, "  vectors:       %d\n", s.Count)
		fmt.Fprintf(w, "  build_id:      %s\n", s.BuildID)
		fmt.Fprintf(w, "  created_at:    %s\n", s.CreatedAt.Format(time.RFC3339))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# disk usage")
	for _, e := range report.Disk.Entries {
		size := render.FormatBytes(e.Bytes)
		if !e.Exists {
			size = "missing"
		}
		fmt.Fprintf(w, "%-16s %-10s %s\n", e.Label+":", size, e.Path)
	}
	fmt.Fprintf(w, "%-16s %s\n", "total:", render.FormatBytes(report.Disk.Total))
	return nil
}

// snapshotState reads the snapshot header at path and compares it with the catalog.
// The model is not checked here since status does not open one.
func snapshotState(path string, catalog *corpus.Catalog) (*vector.SnapshotMeta, string) {
	if path == "" {
		return nil, "disabled"
	}
	meta, err := vector.ReadSnapshotMeta(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, "missing"
	case err != nil:
		return nil, "unreadable: " + err.Error()
	}
	if meta.Count != catalog.Len() || meta.Fingerprint != catalog.Fingerprint() {
		return &meta, "stale (corpus changed)"
	}
	return &meta, "current"
}

func shellCommand(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer components.Close()
	svc := components.Service

	if c.Bool("watch") || cfg.Watch.Enabled {
		watchOpts := []watcher.WatcherOption{watcher.WithDebounce(cfg.Watch.Debounce())}
		if cfg.Debug || c.Bool("debug") {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher(cfg.Corpus.Dir, cfg.Corpus.Extensions, func() {
			// Failures are logged by the service; the current index keeps serving.
			_ = svc.Reload(ctx)
		}, watchOpts...)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop()
		logger.Info("watching corpus", zap.String("dir", cfg.Corpus.Dir))
	}

	sh := &shell{
		svc:  svc,
		out:  c.App.Writer,
		topK: c.Int("top-k"),
		lang: c.String("lang"),
		cfg:  cfg.Retrieval,
	}
	return sh.run(ctx, c.App.Reader)
}

// shell answers one question per input line. Lines starting with ':' are commands.
type shell struct {
	svc  *retriever.Service
	out  io.Writer
	topK int
	lang string
	cfg  config.RetrievalConfig
}

const shellHelp = `commands:
  :k N        set the number of passages
  :lang L     filter by language (":lang" alone clears it)
  :reload     reload the corpus now
  :stats      show index statistics
  :quit       exit
anything else is answered as a question`

func (s *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	fmt.Fprintln(s.out, "meetkant shell; type :help for commands")
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}
		req := models.RetrieveRequest{Question: line, TopK: s.topK, Lang: s.lang}
		if err := req.Validate(s.cfg.DefaultTopK, s.cfg.MaxTopK); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			continue
		}
		results, err := s.svc.Retrieve(ctx, req.Question, req.TopK, req.Lang)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			continue
		}
		_ = render.WriteResults(s.out, req.Question, req.Lang, results, render.OutputText)
	}
}

func (s *shell) command(ctx context.Context, line string) (quit bool) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(s.out, shellHelp)
	case ":k":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			fmt.Fprintf(s.out, "error: %v\n", retriever.ErrInvalidTopK)
			return false
		}
		s.topK = n
	case ":lang":
		s.lang = arg
	case ":reload":
		if err := s.svc.Reload(ctx); err != nil {
			fmt.Fprintf(s.out, "reload failed: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "reloaded: %d passages\n", s.svc.Current().Stats().Passages)
	case ":stats":
		_ = render.WriteJSON(s.out, s.svc.Current().Stats())
	default:
		fmt.Fprintf(s.out, "unknown command %s; type :help\n", name)
	}
	return false
}

func initCommand(c *cli.Context) error {
	path := c.String("config")
	if path == defaultConfigPath {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	}
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	if err := config.Save(path, &cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
