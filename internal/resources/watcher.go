package resources

import (
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 500 * time.Millisecond

// watchDir calls callback once writes to directory settle. Closing the
// returned watcher stops it.
func watchDir(
	directory string,
	callback func(),
) (
	*fsnotify.Watcher,
	error,
) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return nil, err
	}

	reload := make(chan struct{})
	go scheduleReload(reload, callback)
	go handleWatcher(watcher, reload)
	return watcher, nil
}

func handleWatcher(
	watcher *fsnotify.Watcher,
	reload chan<- struct{},
) {
	defer close(reload)
	changes := fsnotify.Write | fsnotify.Remove | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&changes != 0 {
				reload <- struct{}{}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("resource watcher error: %v\n", err)
		}
	}
}

func scheduleReload(
	reload <-chan struct{},
	callback func(),
) {
	var timer *time.Timer
	var c <-chan time.Time
	for {
		select {
		case _, ok := <-reload:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if timer != nil {
				timer.Reset(reloadDelay)
			} else {
				timer = time.NewTimer(reloadDelay)
				c = timer.C
			}

		case <-c:
			c = nil
			timer = nil
			callback()
		}
	}
}
