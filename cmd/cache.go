package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/ytsift/ytsift/pkg/config"
	"github.com/ytsift/ytsift/pkg/render"
)

// CacheCommand creates the cache command with its subcommands
func CacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the persisted last run",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Render the persisted last run",
				Action: func(ctx context.Context, c *cli.Command) error {
					return showSnapshot(c.String("config"))
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the persisted last run",
				Action: func(ctx context.Context, c *cli.Command) error {
					return clearSnapshot()
				},
			},
		},
	}
}

func showSnapshot(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	result, ok := newResultCache().LoadSnapshot()
	if !ok {
		fmt.Println("No persisted run found")
		return nil
	}

	fmt.Print(render.RunResult(result, presetNames(cfg)))
	fmt.Printf("Generated at %s, signature %.12s\n",
		result.GeneratedAt.Format("2006-01-02 15:04:05"), result.Signature)
	return nil
}

func clearSnapshot() error {
	if err := newResultCache().ClearSnapshot(); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	fmt.Println("Persisted run cleared")
	return nil
}
