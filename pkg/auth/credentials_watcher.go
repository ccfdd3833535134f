package auth

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yeetbox/yeetbox/internal/logger"
)

// credentialsPollInterval is the interval at which the credentials file is
// polled for changes.
const credentialsPollInterval = 30 * time.Second

// CredentialsWatcher polls a credentials file for changes and reloads a
// StaticCredentials from it.
//
// It polls the file's modification time rather than using fsnotify,
// following the same reasoning as the teacher's kerberos keytab manager:
// credentials files are frequently replaced atomically (rename-over) by
// provisioning tools, and polling behaves consistently across filesystems
// where fsnotify's rename semantics vary.
//
// Thread Safety: all methods are safe for concurrent use.
type CredentialsWatcher struct {
	path  string
	creds *StaticCredentials

	stopCh  chan struct{}
	stopped bool
	mu      sync.Mutex

	lastMod time.Time
}

// NewCredentialsWatcher creates a watcher (not yet started) that reloads
// creds whenever path changes on disk.
func NewCredentialsWatcher(path string, creds *StaticCredentials) *CredentialsWatcher {
	return &CredentialsWatcher{
		path:   path,
		creds:  creds,
		stopCh: make(chan struct{}),
	}
}

// Start loads the file once, records its modification time, and begins
// polling in the background.
func (w *CredentialsWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("auth: credentials file not accessible: %w", err)
	}

	hashes, err := LoadCredentialsFile(w.path)
	if err != nil {
		return err
	}
	w.creds.Replace(hashes)
	w.lastMod = info.ModTime()

	go w.pollLoop()

	logger.Info("credentials hot-reload started",
		logger.KeyPath, w.path,
		"poll_interval", credentialsPollInterval.String(),
	)
	return nil
}

// Stop stops the polling goroutine. Safe to call multiple times or on a
// watcher that was never started.
func (w *CredentialsWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopCh)
}

func (w *CredentialsWatcher) pollLoop() {
	ticker := time.NewTicker(credentialsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkAndReload()
		case <-w.stopCh:
			return
		}
	}
}

func (w *CredentialsWatcher) checkAndReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil {
		logger.Error("credentials file stat failed", logger.KeyPath, w.path, logger.KeyError, err)
		return
	}

	if info.ModTime().Equal(w.lastMod) {
		return
	}

	hashes, err := LoadCredentialsFile(w.path)
	if err != nil {
		logger.Error("credentials reload failed", logger.KeyPath, w.path, logger.KeyError, err)
		return
	}

	w.creds.Replace(hashes)
	w.lastMod = info.ModTime()
	logger.Info("credentials reloaded", logger.KeyPath, w.path, "count", len(hashes))
}
