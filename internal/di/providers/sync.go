package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
	"github.com/inkwellapp/inkwell-server/internal/sync"
)

// ProvideCodec provides the markdown file codec.
func ProvideCodec(i do.Injector) (*markdown.Codec, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return markdown.NewCodec(log.Logger), nil
}

// ProvideSyncEngine provides the markdown sync engine.
func ProvideSyncEngine(i do.Injector) (*sync.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	codec := do.MustInvoke[*markdown.Codec](i)
	log := do.MustInvoke[*logger.Logger](i)

	return sync.NewEngine(storeHandle.Store, codec, cfg.Catalog.BooksPath, log.Logger), nil
}

// FileWatcherHandle wraps the file watcher with shutdown capability.
// Watcher is nil when watching is disabled by configuration.
type FileWatcherHandle struct {
	*sync.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	return h.Stop()
}

// ProvideFileWatcher provides the books directory watcher.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	engine := do.MustInvoke[*sync.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Catalog.WatcherEnabled {
		log.Info("File watcher disabled by configuration")
		return &FileWatcherHandle{}, nil
	}

	w := sync.NewWatcher(engine, cfg.Catalog.Debounce, log.Logger)
	if err := w.Start(); err != nil {
		return nil, err
	}

	log.Info("File watcher started",
		"path", cfg.Catalog.BooksPath,
		"debounce", cfg.Catalog.Debounce,
	)

	return &FileWatcherHandle{Watcher: w}, nil
}
