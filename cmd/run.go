package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/ytsift/ytsift/pkg/config"
	"github.com/ytsift/ytsift/pkg/render"
	"github.com/ytsift/ytsift/pkg/runner"
	"github.com/ytsift/ytsift/pkg/youtube"
)

// RunCommand creates the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured presets and print the merged results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: "Run a single preset by ID instead of all enabled presets",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort order: published-desc, published-asc, duration-asc, duration-desc, channel-asc",
			},
			&cli.IntFlag{
				Name:  "pages",
				Usage: "Search pages to request per preset (1-10)",
			},
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Render the last persisted run without contacting the API",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runSearch(ctx, c.String("config"), c.String("preset"), c.String("sort"), c.Int("pages"), c.Bool("cached"))
		},
	}
}

func runSearch(ctx context.Context, configPath, presetID, sortFlag string, pagesFlag int, cached bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resultCache := newResultCache()

	if cached {
		result, ok := resultCache.LoadSnapshot()
		if !ok {
			return fmt.Errorf("no persisted run available, run without --cached first")
		}
		fmt.Print(render.RunResult(result, presetNames(cfg)))
		return nil
	}

	req, err := buildRequest(cfg, presetID, sortFlag, pagesFlag)
	if err != nil {
		return err
	}

	r := runner.New(youtube.NewClient(), resultCache)
	result, err := r.Run(ctx, req, cfg.APIKeys)
	if err != nil {
		return fmt.Errorf("running search: %w", err)
	}

	fmt.Print(render.RunResult(result, presetNames(cfg)))
	return nil
}
