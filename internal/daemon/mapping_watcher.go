package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldsites/sitebuilder/internal/config"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/tenant"
)

// MappingWatcher reloads the tenant host mapping when the config file
// changes, swapping the resolver snapshot without a restart. Rapid editor
// writes are debounced so one save triggers one reload.
type MappingWatcher struct {
	configPath   string
	resolver     *tenant.Resolver
	watcher      *fsnotify.Watcher
	logger       *slog.Logger
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewMappingWatcher creates a watcher for the given config file.
func NewMappingWatcher(configPath string, resolver *tenant.Resolver, logger *slog.Logger) (*MappingWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	return &MappingWatcher{
		configPath:   absPath,
		resolver:     resolver,
		watcher:      watcher,
		logger:       logger,
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring. Watching the directory is more reliable than
// watching the file directly; editors often replace files on save.
func (w *MappingWatcher) Start(ctx context.Context) error {
	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", configDir, err)
	}

	w.logger.Info("tenant mapping watcher started", slog.String("config_path", w.configPath))

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop closes the underlying watcher; the loops exit with the context.
func (w *MappingWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *MappingWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(w.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.reloadChan <- struct{}{}:
			default:
				// A reload is already pending.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("mapping watcher error", logfields.Error(err))
		}
	}
}

func (w *MappingWatcher) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.reloadChan:
			// Debounce: wait for the file to settle, absorbing any
			// further change signals in the meantime.
			timer := time.NewTimer(w.debounceTime)
		drain:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-w.reloadChan:
				case <-timer.C:
					break drain
				}
			}
			w.reload()
		}
	}
}

func (w *MappingWatcher) reload() {
	cfg, err := config.Load(w.configPath)
	if err != nil {
		w.logger.Error("mapping reload failed, keeping previous snapshot", logfields.Error(err))
		return
	}
	mapping, err := tenant.LoadMapping(context.Background(), cfg.Tenants)
	if err != nil {
		w.logger.Error("mapping reload failed, keeping previous snapshot", logfields.Error(err))
		return
	}
	w.resolver.Replace(mapping)
	w.logger.Info("tenant mapping reloaded",
		slog.Int("hosts", w.resolver.Size()))
}
