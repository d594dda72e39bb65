// Package notify watches the vault for Markdown changes and triggers
// index rebuilds. Bursts of filesystem events (a sync client dropping
// fifty files at once) coalesce into a single rebuild.
package notify

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/velvetmonkey/notelink/internal/config"
)

// VaultWatcher watches a vault directory tree and invokes a rebuild
// callback after changes settle.
type VaultWatcher struct {
	root     string
	cfg      config.WatcherConfig
	callback func()
	limiter  *rate.Limiter
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewVaultWatcher creates a watcher over root. The callback runs on the
// watcher goroutine; it should hand off long work itself.
func NewVaultWatcher(root string, cfg config.WatcherConfig, callback func()) *VaultWatcher {
	return &VaultWatcher{
		root:     root,
		cfg:      cfg,
		callback: callback,
		limiter:  rate.NewLimiter(rate.Every(cfg.MinRebuildGap), 1),
		done:     make(chan struct{}),
	}
}

// Start registers the vault tree (fsnotify is not recursive, so every
// subdirectory is added) and begins dispatching. Call Stop to clean up.
func (vw *VaultWatcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	vw.watcher = w

	if err := vw.addTree(vw.root); err != nil {
		_ = w.Close()
		return err
	}

	go vw.loop()
	log.Printf("notify: watching %s for note changes", vw.root)
	return nil
}

// Stop shuts down the watcher and waits for the loop to exit.
func (vw *VaultWatcher) Stop() {
	if vw.watcher != nil {
		_ = vw.watcher.Close()
	}
	<-vw.done
}

func (vw *VaultWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return vw.watcher.Add(path)
	})
}

// loop coalesces events: a rebuild fires once the vault has been quiet
// for QuietPeriod, or after MaxInterval under a steady stream of
// changes, whichever comes first. The rate limiter enforces a minimum
// gap between consecutive rebuilds regardless.
func (vw *VaultWatcher) loop() {
	defer close(vw.done)

	quiet := time.NewTimer(vw.cfg.QuietPeriod)
	if !quiet.Stop() {
		<-quiet.C
	}
	var deadline *time.Timer
	var deadlineC <-chan time.Time
	pending := false

	fire := func() {
		pending = false
		if deadline != nil {
			deadline.Stop()
			deadline = nil
			deadlineC = nil
		}
		if err := vw.limiter.Wait(context.Background()); err != nil {
			return
		}
		vw.callback()
	}

	for {
		select {
		case evt, ok := <-vw.watcher.Events:
			if !ok {
				return
			}
			if !vw.relevant(evt) {
				continue
			}
			// New directories must be registered before their contents
			// produce events.
			if evt.Op&fsnotify.Create != 0 {
				if err := vw.addTree(evt.Name); err != nil {
					log.Printf("notify: failed to watch %s: %v", evt.Name, err)
				}
			}
			if !pending {
				pending = true
				deadline = time.NewTimer(vw.cfg.MaxInterval)
				deadlineC = deadline.C
			}
			if !quiet.Stop() {
				select {
				case <-quiet.C:
				default:
				}
			}
			quiet.Reset(vw.cfg.QuietPeriod)

		case <-quiet.C:
			if pending {
				fire()
			}

		case <-deadlineC:
			fire()

		case err, ok := <-vw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

// relevant keeps Markdown file events and directory creations; editor
// temp files and chmod noise are ignored.
func (vw *VaultWatcher) relevant(evt fsnotify.Event) bool {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(evt.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.EqualFold(filepath.Ext(base), ".md") {
		return true
	}
	// Directory events carry no extension; treat creations and removals
	// of extensionless names as potential directory changes.
	return filepath.Ext(base) == ""
}
