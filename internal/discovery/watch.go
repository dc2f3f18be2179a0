package discovery

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

// debounce coalesces the burst of write events one appended update batch
// produces into a single rescan.
const debounce = 250 * time.Millisecond

// Watch follows the received-data log and calls fn with recipients that were
// not present on the previous scan. It blocks until ctx is done.
//
// The parent directory is watched, not the file: the log may not exist yet
// when watching starts, and collectors recreate it.
func Watch(ctx context.Context, path string, log logx.Logger, fn func([]transport.Recipient)) error {
	if log.IsZero() {
		log = logx.Nop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	known := make(map[string]struct{})
	initial, err := FromFile(path)
	if err != nil {
		return err
	}
	for _, r := range initial {
		known[r.String()] = struct{}{}
	}
	log.Info("watching for new recipients", logx.String("path", path), logx.Int("known", len(known)))

	var timer *time.Timer
	var timerC <-chan time.Time

	rescan := func() {
		recipients, err := FromFile(path)
		if err != nil {
			log.Warn("rescan failed", logx.String("path", path), logx.Err(err))
			return
		}
		var fresh []transport.Recipient
		for _, r := range recipients {
			if _, ok := known[r.String()]; ok {
				continue
			}
			known[r.String()] = struct{}{}
			fresh = append(fresh, r)
		}
		if len(fresh) > 0 {
			fn(fresh)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			rescan()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", logx.Err(err))
		}
	}
}
