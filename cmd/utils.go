package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ytsift/ytsift/pkg/cache"
	"github.com/ytsift/ytsift/pkg/config"
	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/log"
	"github.com/ytsift/ytsift/pkg/runner"
)

// newResultCache builds the process cache backed by the persisted last-run
// slot. When the data directory is unavailable the cache degrades to
// memory-only rather than failing the command.
func newResultCache() *cache.Cache {
	dataDir, err := config.GetDataDir()
	if err != nil {
		log.ForComponent("cache").Warnf("data directory unavailable, snapshot persistence disabled: %v", err)
		return cache.New("")
	}
	return cache.New(filepath.Join(dataDir, cache.SnapshotFile))
}

// buildRequest assembles a run request from the loaded config plus CLI
// overrides. An empty presetID selects Any mode.
func buildRequest(cfg *config.Config, presetID, sortFlag string, pagesFlag int) (*core.RunRequest, error) {
	sortSource := sortFlag
	if sortSource == "" {
		sortSource = cfg.Sort
	}
	sortKey, err := core.ParseSortKey(sortSource)
	if err != nil {
		return nil, err
	}

	mode := core.AnyMode()
	if presetID != "" {
		if cfg.FindPreset(presetID) == nil {
			return nil, fmt.Errorf("preset %q not found", presetID)
		}
		mode = core.SingleMode(presetID)
	}

	return &core.RunRequest{
		Mode:            mode,
		Presets:         cfg.Presets,
		Defaults:        cfg.Defaults,
		BlockedChannels: cfg.BlockedKeys(),
		Sort:            sortKey,
		PageBudget:      runner.ResolvePageBudget(pagesFlag, cfg.PageBudget),
	}, nil
}

// presetNames maps preset IDs to display names for result rendering.
func presetNames(cfg *config.Config) map[string]string {
	names := make(map[string]string, len(cfg.Presets))
	for _, p := range cfg.Presets {
		names[p.ID] = p.Name
	}
	return names
}
