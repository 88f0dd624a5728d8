package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
	"github.com/ytsift/ytsift/pkg/config"
	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/log"
	"github.com/ytsift/ytsift/pkg/render"
	"github.com/ytsift/ytsift/pkg/runner"
	"github.com/ytsift/ytsift/pkg/youtube"
)

// debounce interval for editor save bursts (write + rename + chmod)
const watchSettle = 500 * time.Millisecond

// WatchCommand creates the watch command
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the configured presets and re-run whenever the config changes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: "Supervise a single preset by id instead of every enabled preset",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort order: published-desc, published-asc, duration-asc, duration-desc, channel-asc",
			},
			&cli.IntFlag{
				Name:  "pages",
				Usage: "Search pages to request per preset (1-10)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return watchConfig(ctx, c.String("config"), c.String("preset"), c.String("sort"), c.Int("pages"))
		},
	}
}

func watchConfig(ctx context.Context, configPath, presetID, sortFlag string, pagesFlag int) error {
	logger := log.ForComponent("watch")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resultCache := newResultCache()
	sup := runner.NewSupervisor(runner.New(youtube.NewClient(), resultCache))
	defer sup.Stop()

	launch := func() {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Errorf("loading config: %v", err)
			return
		}
		req, err := buildRequest(cfg, presetID, sortFlag, pagesFlag)
		if err != nil {
			logger.Errorf("building request: %v", err)
			return
		}
		names := presetNames(cfg)
		sup.Start(ctx, req, cfg.APIKeys, func(result *core.RunResult, err error) {
			if err != nil {
				logger.Errorf("run failed: %v", err)
				return
			}
			fmt.Print(render.RunResult(result, names))
		})
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnf("closing watcher: %v", err)
		}
	}()

	// Watch the directory, not the file: editors replace config files via
	// rename, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}

	logger.Infof("watching %s", configPath)
	launch()

	var settle *time.Timer
	settleCh := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(watchSettle, func() {
				select {
				case settleCh <- struct{}{}:
				default:
				}
			})
		case <-settleCh:
			logger.Infof("config changed, re-running")
			launch()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)
		}
	}
}
