package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inmodata/inmoharvest/internal/config"
	"github.com/inmodata/inmoharvest/internal/fetch"
	"github.com/inmodata/inmoharvest/internal/harvest"
	"github.com/inmodata/inmoharvest/internal/model"
	"github.com/inmodata/inmoharvest/internal/sink"
	"github.com/inmodata/inmoharvest/internal/site"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [site...]",
	Short: "Harvest listings from one or more sites",
	Long: `Harvest listings from the named sites (or all registered sites with --all).

Each site is paged through sequentially; pages are fetched through the tier
escalator (plain HTTP, stealth HTTP, headless browser) and extracted items
are enriched from their detail pages unless --no-enrich is set. Output is
one JSON array plus a JSONL variant per site.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		all, _ := cmd.Flags().GetBool("all")
		noEnrich, _ := cmd.Flags().GetBool("no-enrich")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		if outputDir == "" {
			outputDir = cfg.Output.Dir
		}

		fetchCfg := cfg.Fetch
		if noStealth, _ := cmd.Flags().GetBool("no-stealth"); noStealth {
			fetchCfg.EnableStealth = false
		}
		if noBrowser, _ := cmd.Flags().GetBool("no-browser"); noBrowser {
			fetchCfg.EnableBrowser = false
		}

		registry := site.DefaultRegistry()
		sites, err := selectSites(registry, args, all)
		if err != nil {
			return err
		}

		esc, err := buildEscalator(fetchCfg)
		if err != nil {
			return err
		}

		maxConcurrent := cfg.Harvest.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 1
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)
		for _, s := range sites {
			g.Go(func() error {
				return harvestSite(gCtx, s, esc, outputDir, !noEnrich)
			})
		}
		return g.Wait()
	},
}

func init() {
	harvestCmd.Flags().Bool("all", false, "harvest every registered site")
	harvestCmd.Flags().Bool("no-enrich", false, "skip detail-page enrichment")
	harvestCmd.Flags().String("output-dir", "", "output directory (default from config)")
	harvestCmd.Flags().Bool("no-stealth", false, "disable the stealth HTTP tier for this run")
	harvestCmd.Flags().Bool("no-browser", false, "disable the headless browser tier for this run")
	rootCmd.AddCommand(harvestCmd)
}

func selectSites(registry *site.Registry, names []string, all bool) ([]site.Site, error) {
	if all {
		return registry.All(), nil
	}
	if len(names) == 0 {
		return nil, eris.New("harvest: name at least one site or pass --all")
	}
	sites := make([]site.Site, 0, len(names))
	for _, name := range names {
		s, err := registry.Get(name)
		if err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// buildEscalator assembles the tier chain from config. Disabled tiers are
// absent from the chain rather than failing at fetch time.
func buildEscalator(fc config.FetchConfig) (*fetch.Escalator, error) {
	policy := fetch.Policy{
		UserAgents:  fc.UserAgents,
		JitterMin:   time.Duration(fc.JitterMinMs) * time.Millisecond,
		JitterMax:   time.Duration(fc.JitterMaxMs) * time.Millisecond,
		Timeout:     fc.Timeout(),
		MaxRetries:  fc.MaxRetries,
		RatePerHost: fc.RatePerHost,
		SettleDelay: time.Duration(fc.SettleMs) * time.Millisecond,
	}

	var stealth, browser fetch.Tier
	if fc.EnableStealth {
		st, err := fetch.NewStealthTier(policy)
		if err != nil {
			return nil, eris.Wrap(err, "harvest: build stealth tier")
		}
		stealth = st
	}
	if fc.EnableBrowser {
		browser = fetch.NewBrowserTier(policy)
	}

	return fetch.NewEscalator(fetch.NewPlainTier(policy), stealth, browser), nil
}

func harvestSite(ctx context.Context, s site.Site, esc *fetch.Escalator, outputDir string, enrich bool) error {
	log := zap.L().With(zap.String("site", s.Name()))

	startURL := s.DefaultStartURL()
	outputPath := filepath.Join(outputDir, s.Name()+".json")
	if override, ok := cfg.SiteOverride(s.Name()); ok {
		if override.StartURL != "" {
			startURL = override.StartURL
		}
		if override.Output != "" {
			outputPath = override.Output
		}
	}

	opts := s.FetchOptions()
	timeout := cfg.Fetch.Timeout()

	walker := harvest.NewWalker[model.Property](esc, opts, timeout)
	var enricher *harvest.Enricher[model.Property]
	if enrich {
		enricher = harvest.NewEnricher(esc, opts, timeout,
			s.DetailURL, s.MergeDetail,
			time.Duration(cfg.Harvest.DetailDelayMinMs)*time.Millisecond,
			time.Duration(cfg.Harvest.DetailDelayMaxMs)*time.Millisecond,
		)
	}

	log.Info("harvesting site", zap.String("start_url", startURL))
	h := harvest.NewHarvester(walker, enricher, esc, opts)
	items, err := h.Run(ctx, startURL, s.Extract)
	if err != nil {
		return eris.Wrapf(err, "harvest: site %s", s.Name())
	}

	if err := sink.NewWriter().Write(outputPath, items); err != nil {
		return eris.Wrapf(err, "harvest: write output for %s", s.Name())
	}

	log.Info("site complete",
		zap.Int("items", len(items)),
		zap.String("output", outputPath),
	)
	return nil
}
