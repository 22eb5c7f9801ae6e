package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
	"github.com/ccms-ucsd/resultview/internal/logger"
)

var (
	watchTask     string
	watchSpec     string
	watchTempDir  string
	watchParams   map[string]string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <block> <result-file> <output-dir> [<block> <result-file> <output-dir>...]",
	Short: "Rebuild result view blocks when their inputs change",
	Long: `Builds the given blocks like build, then keeps running and builds them
again whenever the specification document or one of the result files
changes. Rebuilds are at most one per interval; changes arriving in the
meantime are folded into the next rebuild.

Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchTask, "task", "", "task ID the result files belong to")
	watchCmd.Flags().StringVar(&watchSpec, "spec", "", "result specification document (XML or YAML)")
	watchCmd.Flags().StringVar(&watchTempDir, "temp", "", "directory for intermediate files (default from settings)")
	watchCmd.Flags().StringToStringVar(&watchParams, "param", nil, "specification parameter as key=value")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "minimum time between rebuilds (default from settings)")
	_ = watchCmd.MarkFlagRequired("task")
	_ = watchCmd.MarkFlagRequired("spec")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireBuilder(); err != nil {
		return err
	}
	targets, err := parseTargets(args)
	if err != nil {
		return err
	}
	interval, err := resolveInterval(watchInterval)
	if err != nil {
		return err
	}
	tempDir, err := resolveTempDir(watchTempDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := watchedFiles(watchSpec, targets)
	for _, dir := range watchedDirs(watched) {
		// Files are often replaced rather than rewritten, so watch their directories.
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	loop := &watchLoop{
		watched: watched,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		rebuild: func(ctx context.Context) error {
			doc, err := specLoader.Load(watchSpec)
			if err != nil {
				return fmt.Errorf("loading specification: %w", err)
			}
			report, err := resultBuilder.Build(ctx, driving.BuildRequest{
				TaskID:  watchTask,
				Spec:    doc,
				TempDir: tempDir,
				Params:  watchParams,
				Targets: targets,
			})
			printReport(cmd, report)
			return err
		},
		report: func(err error) {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", err)
		},
	}

	cmd.Printf("Watching %d file(s), rebuilding at most every %s\n", len(watched), interval)
	return loop.run(ctx, watcher.Events, watcher.Errors)
}

// watchLoop rebuilds on changes to watched files, throttled by a limiter.
type watchLoop struct {
	watched map[string]bool
	limiter *rate.Limiter
	rebuild func(context.Context) error
	report  func(error)
}

// run builds once, then once per batch of relevant events until ctx is
// done or the event channel closes.
func (l *watchLoop) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	l.limiter.Allow()
	l.build(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !l.relevant(ev) {
				continue
			}
			logger.Debug("change detected: %s", ev)
			if err := l.limiter.Wait(ctx); err != nil {
				return nil
			}
			drain(events)
			l.build(ctx)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func (l *watchLoop) build(ctx context.Context) {
	if err := l.rebuild(ctx); err != nil {
		l.report(err)
	}
}

func (l *watchLoop) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return l.watched[absClean(ev.Name)]
}

// drain discards the events already queued.
func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func watchedFiles(spec string, targets []driving.BlockTarget) map[string]bool {
	files := map[string]bool{absClean(spec): true}
	for _, t := range targets {
		if t.ResultFile != "" {
			files[absClean(t.ResultFile)] = true
		}
	}
	return files
}

func watchedDirs(files map[string]bool) []string {
	seen := make(map[string]bool)
	var dirs []string
	for f := range files {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func absClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// resolveInterval prefers the flag, then the configured interval.
func resolveInterval(flag time.Duration) (time.Duration, error) {
	if flag > 0 {
		return flag, nil
	}
	if settingsService == nil {
		return domain.DefaultAppSettings().Watch.Interval, nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return 0, fmt.Errorf("reading settings: %w", err)
	}
	return settings.Watch.Interval, nil
}
