package main

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/eslintrc"
	"github.com/dshills/eslintrc/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-print the effective configuration when its sources change",
	Long: `Resolve the configuration for one file, watch every config source that
contributed to it, and re-resolve and re-print whenever a source changes.
Sources added by an edit (a new extends target, a new cascade level) join
the watch set on the next reload.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := zap.S()

	target, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	factory, err := eslintrc.New(eslintrc.WithLogger(log))
	if err != nil {
		return err
	}

	seq, err := resolveTarget(factory, target)
	if err != nil {
		return err
	}
	if err := printResult(cmd, seq, target); err != nil {
		return err
	}

	w, err := watcher.New(
		watcher.WithLogger(log),
		watcher.WithDebounce(250*time.Millisecond),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := watchSources(w, seq); err != nil {
		return err
	}
	log.Infow("watching config sources", "paths", w.Paths())

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			log.Infow("config changed", "path", event.Path, "op", event.Op.String())

			factory.ClearCache()
			next, err := resolveTarget(factory, target)
			if err != nil {
				// Keep watching; a config mid-edit is often transiently broken.
				log.Errorw("resolution failed", "error", err)
				continue
			}
			seq = next
			if err := printResult(cmd, seq, target); err != nil {
				return err
			}
			if err := watchSources(w, seq); err != nil {
				log.Warnw("watch update failed", "error", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warnw("watch error", "error", err)

		case <-signals:
			log.Infow("shutting down")
			return nil
		}
	}
}

// watchSources registers the sequence's source files, plus the explicit
// --config file when one is in play so a config that currently resolves to
// nothing still reports its next change.
func watchSources(w *watcher.Watcher, seq *eslintrc.Sequence) error {
	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return err
		}
		if err := w.Add(abs); err != nil && !errors.Is(err, watcher.ErrAlreadyWatching) {
			return err
		}
	}
	return w.WatchSequence(seq)
}
