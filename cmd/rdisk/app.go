package main

import (
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sigreer/rdisk/internal/config"
	"github.com/sigreer/rdisk/internal/db"
	"github.com/sigreer/rdisk/internal/diskutil"
	"github.com/sigreer/rdisk/internal/manager"
	"github.com/sigreer/rdisk/internal/monitor"
)

// app is the composition root shared by the commands that drive a manager
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *db.DB
	tool   *diskutil.Tool
	poller *monitor.Poller
}

func newApp(cfg *config.Config, log zerolog.Logger, database *db.DB) *app {
	tool := diskutil.New(diskutil.ExecRunner{}, cfg.Tools.Allocate, cfg.Tools.Diskutil)
	return &app{
		cfg:    cfg,
		log:    log,
		db:     database,
		tool:   tool,
		poller: monitor.NewPoller(tool, cfg.PollInterval, cfg.InfoTTL, log),
	}
}

// manager builds a manager over source. Only a persistent manager reads
// and writes restoration records; one-shot commands just record history.
func (a *app) manager(source monitor.Source, persistent bool) (*manager.Manager, error) {
	opts := manager.Options{
		Commands:       a.tool,
		Source:         source,
		Classifier:     &a.cfg.Classification,
		Debounce:       a.cfg.RestoreDebounce,
		PersistDefault: a.cfg.PersistSetup,
		Logger:         a.log,
	}
	if a.db != nil {
		opts.Recorder = a.db
		if persistent {
			opts.Store = a.db
			opts.Settings = a.db
		}
	}
	return manager.New(opts)
}

// closeAll closes every closer and reports all failures together
func closeAll(closers ...io.Closer) error {
	var result *multierror.Error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
