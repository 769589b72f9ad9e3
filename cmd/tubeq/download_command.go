package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tubeq/internal/config"
	"tubeq/internal/history"
	"tubeq/internal/logging"
	"tubeq/internal/metrics"
	"tubeq/internal/preflight"
	"tubeq/internal/queue"
	"tubeq/internal/workflow"
)

const lockFileName = "tubeq.lock"

type downloadFlags struct {
	urlFile     string
	outputDir   string
	quality     string
	concurrency int
	retries     int
	force       bool
	noHistory   bool
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var flags downloadFlags

	cmd := &cobra.Command{
		Use:   "download [url...]",
		Short: "Download one or more URLs",
		Long: "Queue every URL given on the command line (and in --file), then download\n" +
			"them with the configured concurrency. Playlists expand into one item per entry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd.Context(), cmd, ctx, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.urlFile, "file", "f", "", "Read URLs from a file, one per line")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Override paths.download_dir")
	cmd.Flags().StringVarP(&flags.quality, "quality", "q", "", "Override downloads.quality")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "j", 0, "Override downloads.max_concurrent")
	cmd.Flags().IntVar(&flags.retries, "retries", -1, "Override downloads.max_retries")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Download URLs already recorded as completed")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not read or write the history database")
	return cmd
}

func runDownload(parent context.Context, cmd *cobra.Command, ctx *commandContext, flags downloadFlags, args []string) error {
	if parent == nil {
		parent = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyDownloadOverrides(cfg, flags); err != nil {
		return err
	}

	urls, err := collectURLs(args, flags.urlFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no URLs given (pass them as arguments or with --file)")
	}

	if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg)); len(failed) > 0 {
		for _, line := range preflightLines(failed, shouldColorize(out)) {
			fmt.Fprintln(out, line)
		}
		return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another tubeq download is already running")
	}
	defer lock.Unlock() //nolint:errcheck

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var store *history.Store
	if !flags.noHistory && strings.TrimSpace(cfg.Paths.HistoryDB) != "" {
		store, err = ctx.openHistory()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
	}

	registry := prometheus.NewRegistry()
	mt := metrics.New(registry)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(signalCtx, cfg.Metrics.Bind, registry, logger); err != nil {
				logger.Warn("metrics endpoint failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "metrics_serve_failed"),
					logging.String(logging.FieldErrorHint, "check metrics.bind for a port conflict"),
				)
			}
		}()
	}

	q := queue.New(queue.Options{MaxSize: cfg.Downloads.MaxQueueSize, Logger: logger})
	defer q.Close()

	queued := enqueueURLs(signalCtx, out, q, store, cfg, urls, flags.force)
	if queued == 0 {
		fmt.Fprintln(out, "Nothing to download")
		return nil
	}

	reporter := newDownloadReporter(out, shouldColorize(out))
	opts := []workflow.Option{
		workflow.WithMetrics(mt),
		workflow.WithCallbacks(workflow.Callbacks{
			OnProgress:     reporter.progress,
			OnItemComplete: reporter.itemComplete,
		}),
	}
	if store != nil {
		opts = append(opts, workflow.WithRecorder(store))
	}

	mgr := workflow.NewManager(cfg, q, ctx.engine(cfg, logger), logger, opts...)
	defer mgr.Close()

	fmt.Fprintf(out, "Downloading %d item(s) to %s (max %d at a time)\n", queued, cfg.Paths.DownloadDir, mgr.MaxConcurrent())
	if err := mgr.Start(signalCtx); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	waitErr := mgr.Wait(signalCtx)
	mgr.Stop()
	mgr.Flush()

	items := q.GetAll()
	fmt.Fprintln(out, renderDownloadSummary(items))

	if waitErr != nil || signalCtx.Err() != nil {
		left := len(q.GetByStatus(queue.StatusQueued))
		fmt.Fprintf(out, "Interrupted; %d item(s) were not downloaded\n", left)
		return context.Canceled
	}

	stats := q.Statistics()
	failed := stats.Count(queue.StatusError) + stats.Count(queue.StatusCancelled)
	if failed > 0 {
		return fmt.Errorf("%d of %d download(s) failed", failed, len(items))
	}
	return nil
}

func applyDownloadOverrides(cfg *config.Config, flags downloadFlags) error {
	if dir := strings.TrimSpace(flags.outputDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Paths.DownloadDir = expanded
	}
	if quality := strings.TrimSpace(flags.quality); quality != "" {
		cfg.Downloads.Quality = strings.ToLower(quality)
	}
	if flags.concurrency != 0 {
		cfg.Downloads.MaxConcurrent = flags.concurrency
	}
	if flags.retries >= 0 {
		cfg.Downloads.MaxRetries = flags.retries
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.EnsureDirectories()
}

// collectURLs merges positional URLs with those read from path, dropping
// duplicates while keeping first-seen order.
func collectURLs(args []string, path string) ([]string, error) {
	urls := make([]string, 0, len(args))
	urls = append(urls, args...)
	if strings.TrimSpace(path) != "" {
		fromFile, err := readURLFile(path)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}

	seen := make(map[string]struct{}, len(urls))
	unique := urls[:0]
	for _, raw := range urls {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		unique = append(unique, url)
	}
	return unique, nil
}

// readURLFile returns the non-empty lines of path. Lines starting with # are
// comments.
func readURLFile(path string) ([]string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer file.Close()
	return parseURLList(file)
}

func parseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}

// enqueueURLs adds each URL to q and reports skipped ones. URLs already
// completed according to history are skipped unless force is set.
func enqueueURLs(ctx context.Context, out io.Writer, q *queue.Queue, store *history.Store, cfg *config.Config, urls []string, force bool) int {
	added := 0
	for _, url := range urls {
		if store != nil && !force {
			entry, ok, err := store.LastCompleted(ctx, url)
			if err == nil && ok {
				fmt.Fprintf(out, "Skipping %s (downloaded %s; use --force to fetch again)\n", url, humanize.Time(entry.FinishedAt))
				continue
			}
		}
		item := queue.NewItem(url, queue.WithMaxRetries(cfg.Downloads.MaxRetries))
		if ok, reason := q.Add(item); !ok {
			fmt.Fprintf(out, "Skipping %s: %s\n", url, reason)
			continue
		}
		added++
	}
	return added
}

func renderDownloadSummary(items []queue.Item) string {
	rows := make([][]string, 0, len(items))
	var total int64
	for _, item := range items {
		if item.Status == queue.StatusCompleted && item.EstimatedSizeBytes > 0 {
			total += item.EstimatedSizeBytes
		}
		detail := item.OutputPath
		if item.Status == queue.StatusError || item.Status == queue.StatusCancelled {
			detail = item.ErrorMessage
		}
		rows = append(rows, []string{
			item.Label(),
			string(item.Status),
			item.FormatDuration(),
			item.FormatSize(),
			detail,
		})
	}
	return renderTable(tableSpec{
		Headers:   []string{"Title", "Status", "Length", "Size", "Output"},
		Rows:      rows,
		Aligns:    []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		Footer:    []string{fmt.Sprintf("%d item(s)", len(items)), "", "", humanize.IBytes(uint64(total)), ""},
		MaxWidths: []int{48, 0, 0, 0, 60},
	})
}
