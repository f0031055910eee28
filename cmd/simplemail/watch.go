package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/simple-mail-api-go/internal/config"
	"github.com/lex00/simple-mail-api-go/internal/logger"
)

// newWatchCmd creates the "watch" subcommand for re-synthesizing on file changes.
func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when the definition or config changes",
		Long: `Watch synthesizes once, then monitors the workflow definition file and the
config file and synthesizes again whenever one of them changes. Rapid
changes are debounced. The config file is reloaded before each rebuild.

Examples:
    simplemail watch
    simplemail watch -o out --debounce 1s`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLocalFlags: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, debounce)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (default cdk.out)")
	cmd.Flags().StringP("format", "f", "", "Template format: json or yaml (default json)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")

	return cmd
}

// runWatch monitors the watched files and rebuilds on changes until ctx is done.
func runWatch(ctx context.Context, cmd *cobra.Command, debounce time.Duration) error {
	w := cmd.OutOrStdout()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	track := func(c *config.Config) error {
		for _, path := range watchedFiles(c) {
			watched[path] = true
			dir := filepath.Dir(path)
			if dirs[dir] {
				continue
			}
			// Directories are watched so editors that replace files are seen.
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			dirs[dir] = true
			fmt.Fprintf(w, "Watching: %s\n", dir)
		}
		return nil
	}
	if err := track(cfg); err != nil {
		return err
	}

	fmt.Fprintln(w, "Running initial synth...")
	buildAndWrite(ctx, w, cfg)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !shouldRebuild(event, watched) {
				continue
			}
			logger.Logger.Debugw("change detected", "file", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(w, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			c, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				fmt.Fprintf(w, "Config error: %v\n", err)
				continue
			}
			cfg = c
			if err := track(c); err != nil {
				fmt.Fprintf(w, "Watch error: %v\n", err)
			}
			buildAndWrite(ctx, w, c)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// watchedFiles returns the absolute paths whose changes trigger a rebuild.
func watchedFiles(c *config.Config) []string {
	var files []string
	for _, path := range []string{c.Definition, c.File} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		files = append(files, abs)
	}
	return files
}

// shouldRebuild reports whether event writes or creates a watched file.
func shouldRebuild(event fsnotify.Event, watched map[string]bool) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return watched[abs]
}

// buildAndWrite synthesizes and writes the assembly, reporting failures to w
// instead of stopping the watch.
func buildAndWrite(ctx context.Context, w io.Writer, c *config.Config) bool {
	asm, err := synthesize(ctx, c)
	if err != nil {
		fmt.Fprintf(w, "Build error: %v\n", err)
		return false
	}
	written, err := asm.Write(c.Output, c.Format)
	if err != nil {
		fmt.Fprintf(w, "Output error: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "Build successful, wrote %d files to %s\n", len(written), c.Output)
	return true
}
