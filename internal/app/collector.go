package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/locinfo/internal/collector"
	"github.com/samvad-hq/locinfo/internal/config"
	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/internal/metrics"
	"github.com/samvad-hq/locinfo/internal/storage"
	"github.com/samvad-hq/locinfo/pkg/providers"
	"github.com/samvad-hq/locinfo/pkg/publishers"
)

// Collector wires providers, the cache store, announcements and the orchestrator,
// and runs collection once or on an interval.
type Collector struct {
	cfg          *config.Config
	orchestrator *collector.Orchestrator
	fanout       *publishers.Fanout
	tracker      storage.Tracker
	metrics      *metrics.Recorder
	interval     time.Duration
	log          logger.Logger
}

// NewCollector builds a collection runtime. All provider API keys must be configured.
func NewCollector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if err := cfg.RequireCollectionKeys(); err != nil {
		return nil, err
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	src, err := buildSources(cfg, providerReg, providers.DefaultHTTPClient(cfg.HTTPTimeout), true)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		cfg:      cfg,
		metrics:  metrics.New(),
		interval: cfg.CollectInterval,
		log:      log,
	}

	announcer, err := c.initAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	deps := collector.Deps{
		Store:       store,
		Log:         log,
		Metrics:     c.metrics,
		Announcer:   announcer,
		Concurrency: cfg.CollectConcurrency,
	}
	set, err := buildCollectors(cfg, deps, src)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("build collectors: %w", err)
	}
	c.orchestrator, err = collector.NewOrchestrator(set.country, set.rates, set.weather, set.news, log, c.metrics)
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// initAnnouncements builds publishers and the headline tracker when a publishers file is configured.
func (c *Collector) initAnnouncements(ctx context.Context) (*collector.Announcer, error) {
	if c.cfg.PublishersFile == "" {
		c.log.InfoObj("announcements disabled", "publishers_file", "")
		return nil, nil
	}

	cfgs, err := publishers.LoadConfigs(c.cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	if len(cfgs) == 0 {
		c.log.WarnObj("no enabled publishers; announcements disabled", "publishers_file", c.cfg.PublishersFile)
		return nil, nil
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, c.log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	c.fanout = publishers.NewFanout(pubs)

	summaries := make([]map[string]string, 0, len(cfgs))
	for _, pc := range cfgs {
		summaries = append(summaries, map[string]string{"id": pc.ID, "type": pc.Type})
	}
	c.log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	c.tracker, err = storage.NewTracker(c.cfg.StorageType, c.cfg.BBoltPath, storage.Options{
		HeadlineTTL:     c.cfg.StorageTTL,
		CleanupInterval: c.cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = c.fanout.Close()
		return nil, fmt.Errorf("init headline tracker: %w", err)
	}
	c.log.InfoObj("headline tracker initialized", "storage_config", map[string]any{
		"type":                     c.cfg.StorageType,
		"path":                     c.cfg.BBoltPath,
		"headline_ttl_seconds":     int(c.cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(c.cfg.StorageCleanupInterval.Seconds()),
	})

	return collector.NewAnnouncer(c.fanout, c.tracker, c.log), nil
}

// Run executes one collection, then repeats on the configured interval until ctx
// is cancelled. With no interval it returns after the first run.
func (c *Collector) Run(ctx context.Context) error {
	if c == nil || c.orchestrator == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.Close()

	err := c.RunOnce(ctx)
	if c.interval <= 0 {
		return err
	}
	if err != nil {
		c.log.ErrorObj("initial collection failed", "error", err.Error())
	}

	c.log.InfoObj("collector loop starting", "collector_state", map[string]any{
		"publishers_count": c.fanout.Size(),
		"collect_interval": c.interval.String(),
	})

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.InfoObj("collector loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := c.RunOnce(ctx); err != nil {
				c.log.ErrorObj("scheduled collection failed", "error", err.Error())
			}
		}
	}
}

// RunOnce performs a single collection and exports metrics when a textfile is configured.
func (c *Collector) RunOnce(ctx context.Context) error {
	summary, err := c.orchestrator.Run(ctx)
	if c.cfg.MetricsTextfile != "" {
		if werr := c.metrics.WriteTextfile(c.cfg.MetricsTextfile); werr != nil {
			c.log.WarnObj("metrics export failed", "metrics", map[string]any{
				"path":  c.cfg.MetricsTextfile,
				"error": werr.Error(),
			})
		}
	}
	if err != nil {
		return fmt.Errorf("collection after %s: %w", summary.Duration.Round(time.Millisecond), err)
	}
	return nil
}

// Close releases publishers and the headline tracker.
func (c *Collector) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.fanout != nil {
		errs = append(errs, c.fanout.Close())
		c.fanout = nil
	}
	if c.tracker != nil {
		errs = append(errs, c.tracker.Close())
		c.tracker = nil
	}
	if err := errors.Join(errs...); err != nil {
		c.log.ErrorObj("collector close failed", "error", err.Error())
		return err
	}
	return nil
}
