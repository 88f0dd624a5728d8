package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"github.com/ytsift/ytsift/pkg/config"
	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/render"
)

// PresetsCommand creates the presets command with its subcommands
func PresetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "presets",
		Usage: "Manage search presets",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List configured presets",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listPresets(c.String("config"))
				},
			},
			{
				Name:      "show",
				Usage:     "Show a preset with its effective search parameters",
				ArgsUsage: "<preset-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: presets show <preset-id>")
					}
					return showPreset(c.String("config"), c.Args().First())
				},
			},
			{
				Name:  "add",
				Usage: "Add a new preset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name for the preset",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "Free search text",
					},
					&cli.StringSliceFlag{
						Name:  "any",
						Usage: "Terms combined with OR (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "all",
						Usage: "Terms that must all appear (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "not",
						Usage: "Terms to exclude (repeatable)",
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Ordering priority, higher runs first",
					},
					&cli.BoolFlag{
						Name:  "disabled",
						Usage: "Create the preset disabled",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return addPreset(c.String("config"), presetFromFlags(c))
				},
			},
			{
				Name:      "enable",
				Usage:     "Enable a preset",
				ArgsUsage: "<preset-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: presets enable <preset-id>")
					}
					return setPresetEnabled(c.String("config"), c.Args().First(), true)
				},
			},
			{
				Name:      "disable",
				Usage:     "Disable a preset",
				ArgsUsage: "<preset-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: presets disable <preset-id>")
					}
					return setPresetEnabled(c.String("config"), c.Args().First(), false)
				},
			},
		},
	}
}

func listPresets(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if len(cfg.Presets) == 0 {
		fmt.Println("No presets configured")
		return nil
	}

	for _, p := range cfg.Presets {
		marker := " "
		if p.Enabled {
			marker = "*"
		}
		query := p.Query.ComposedText()
		if query == "" {
			query = "(empty query)"
		}
		fmt.Printf("%s %-24s %-20s prio=%-3d %s\n", marker, p.ID, p.Name, p.Priority, query)
	}
	fmt.Println("\n* = enabled")
	return nil
}

func showPreset(configPath, id string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	p := cfg.FindPreset(id)
	if p == nil {
		return fmt.Errorf("preset %q not found", id)
	}

	fmt.Printf("ID:       %s\n", p.ID)
	fmt.Printf("Name:     %s\n", p.Name)
	fmt.Printf("Enabled:  %v\n", p.Enabled)
	fmt.Printf("Priority: %d\n", p.Priority)
	fmt.Printf("Query:    %s\n", p.Query.ComposedText())
	if len(p.Query.NotTerms) > 0 {
		fmt.Printf("Excludes: %s\n", strings.Join(p.Query.NotTerms, ", "))
	}

	window, windowed := core.ResolveWindow(p, &cfg.Defaults, time.Now())
	if windowed {
		fmt.Printf("Window:   %s to %s\n",
			window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
	} else {
		fmt.Printf("Window:   any time\n")
	}
	fmt.Printf("Min duration:  %s\n", render.FormatDuration(core.EffectiveMinDuration(p, &cfg.Defaults)))
	fmt.Printf("Language only: %v (%s)\n", core.EffectiveLanguageOnly(p, &cfg.Defaults), cfg.Defaults.TargetLanguage())
	fmt.Printf("Captions:      %v\n", core.EffectiveRequireCaptions(p, &cfg.Defaults))
	return nil
}

func presetFromFlags(c *cli.Command) core.Preset {
	return core.Preset{
		ID:       uuid.New().String(),
		Name:     c.String("name"),
		Enabled:  !c.Bool("disabled"),
		Priority: c.Int("priority"),
		Query: core.QuerySpec{
			Text:     c.String("text"),
			AnyTerms: c.StringSlice("any"),
			AllTerms: c.StringSlice("all"),
			NotTerms: c.StringSlice("not"),
		},
	}
}

func addPreset(configPath string, p core.Preset) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if p.Query.ComposedText() == "" {
		return fmt.Errorf("preset needs at least one of --text, --any or --all")
	}

	cfg.Presets = append(cfg.Presets, p)
	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Added preset %s (%s)\n", p.ID, p.Name)
	return nil
}

func setPresetEnabled(configPath, id string, enabled bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	p := cfg.FindPreset(id)
	if p == nil {
		return fmt.Errorf("preset %q not found", id)
	}
	p.Enabled = enabled

	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Preset %s %s\n", id, state)
	return nil
}
