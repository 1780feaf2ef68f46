// Package reload implements hot-reload of the source-connector and
// trust-hierarchy configuration files, adapted from the teacher's
// pkg/hotreload.ConfigReloader: fsnotify watches the files, a debounce
// timer coalesces rapid writes, and a periodic hash check catches
// changes the watcher misses (editors that replace-by-rename, network
// filesystems).
package reload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/config"
)

// Reloader watches the trust-hierarchy and source-config files named in
// a Config and re-applies them without a process restart.
type Reloader struct {
	reloadConfig config.ReloadConfig
	logger       *logrus.Logger
	watchedPaths []string
	currentHash  string

	watcher *fsnotify.Watcher

	onTrustConfigChanged  func(path string) error
	onSourceConfigChanged func(path string) error
	onReloadError         func(error)

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	stats Stats
}

// Stats reports reload activity.
type Stats struct {
	TotalReloads      int64
	SuccessfulReloads int64
	FailedReloads     int64
	LastReloadTime    time.Time
	LastError         string
}

// New builds a Reloader watching the given files (trust hierarchy
// config, per-source config, entity-model/lens config). Files that
// don't exist yet are skipped with a warning rather than failing
// construction, since hot-reload is an optional convenience.
func New(reloadConfig config.ReloadConfig, watchPaths []string, logger *logrus.Logger,
	onTrustConfigChanged, onSourceConfigChanged func(path string) error, onReloadError func(error)) (*Reloader, error) {

	if !reloadConfig.Enabled {
		return &Reloader{reloadConfig: reloadConfig, logger: logger}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Reloader{
		reloadConfig:          reloadConfig,
		logger:                logger,
		watcher:               watcher,
		onTrustConfigChanged:  onTrustConfigChanged,
		onSourceConfigChanged: onSourceConfigChanged,
		onReloadError:         onReloadError,
		ctx:                   ctx,
		cancel:                cancel,
	}

	for _, path := range watchPaths {
		if path == "" {
			continue
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			logger.WithError(err).WithField("file", path).Warn("skipping unwatchable config path")
			continue
		}
		if err := watcher.Add(absPath); err != nil {
			logger.WithError(err).WithField("file", absPath).Warn("failed to watch config file")
			continue
		}
		r.watchedPaths = append(r.watchedPaths, absPath)
	}

	return r, nil
}

// Start launches the watch loop and the periodic hash-check fallback.
func (r *Reloader) Start() error {
	if !r.reloadConfig.Enabled {
		r.logger.Info("config hot-reload disabled")
		return nil
	}
	if r.running.Load() {
		return fmt.Errorf("reloader already running")
	}

	r.running.Store(true)
	r.wg.Add(2)
	go r.watchLoop()
	go r.periodicCheck()

	r.logger.WithField("files_watched", len(r.watchedPaths)).Info("config hot-reload started")
	return nil
}

// Stop halts the watch loop.
func (r *Reloader) Stop() error {
	if !r.running.Load() {
		return nil
	}
	r.running.Store(false)
	r.cancel()
	if r.watcher != nil {
		r.watcher.Close()
	}
	r.wg.Wait()
	r.logger.Info("config hot-reload stopped")
	return nil
}

func (r *Reloader) watchLoop() {
	defer r.wg.Done()

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	var pendingPath string

	for {
		select {
		case <-r.ctx.Done():
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pendingPath = event.Name
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(r.reloadConfig.DebounceInterval)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.WithError(err).Error("config watcher error")
		case <-debounce.C:
			if pendingPath != "" {
				r.reload(pendingPath)
				pendingPath = ""
			}
		}
	}
}

func (r *Reloader) periodicCheck() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.reloadConfig.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			for _, path := range r.watchedPaths {
				r.reloadIfChanged(path)
			}
		}
	}
}

func (r *Reloader) reloadIfChanged(path string) {
	hash, err := hashFile(path)
	if err != nil {
		return
	}
	key := path + ":" + hash
	if key == r.currentHash {
		return
	}
	r.reload(path)
}

func (r *Reloader) reload(path string) {
	r.stats.TotalReloads++
	r.stats.LastReloadTime = time.Now()

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	var applyErr error
	switch {
	case isTrustConfig(absPath) && r.onTrustConfigChanged != nil:
		applyErr = r.onTrustConfigChanged(absPath)
	case r.onSourceConfigChanged != nil:
		applyErr = r.onSourceConfigChanged(absPath)
	}

	if applyErr != nil {
		r.stats.FailedReloads++
		r.stats.LastError = applyErr.Error()
		r.logger.WithError(applyErr).WithField("file", absPath).Error("config reload failed")
		if r.onReloadError != nil {
			r.onReloadError(applyErr)
		}
		return
	}

	if hash, err := hashFile(absPath); err == nil {
		r.currentHash = absPath + ":" + hash
	}

	r.stats.SuccessfulReloads++
	r.stats.LastError = ""
	r.logger.WithField("file", absPath).Info("config reloaded")
}

// isTrustConfig is a filename convention, not a content inspection:
// the trust hierarchy config is expected to be named trust*.yaml by
// deployment convention, everything else watched is source config.
func isTrustConfig(path string) bool {
	base := filepath.Base(path)
	return len(base) >= 5 && base[:5] == "trust"
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetStats returns a snapshot of reload activity.
func (r *Reloader) GetStats() Stats {
	return r.stats
}
