package privilege

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"displayctl/internal/command"
)

const nodePrefix = "i2c-"

// NodeDevices probes i2c-* character devices below Dir.
type NodeDevices struct {
	Dir    string
	Runner command.Runner
	Logger *zap.SugaredLogger
}

func (d *NodeDevices) nodes() []string {
	matches, _ := filepath.Glob(filepath.Join(d.Dir, nodePrefix+"*"))
	return matches
}

// Probe opens every node read-write and reports whether any succeeded.
func (d *NodeDevices) Probe() (bool, int) {
	nodes := d.nodes()
	for _, path := range nodes {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			continue
		}
		f.Close()
		return true, len(nodes)
	}
	return false, len(nodes)
}

// LoadModule runs modprobe i2c-dev. Without root this usually fails, which is fine.
func (d *NodeDevices) LoadModule() error {
	if d.Runner == nil {
		return nil
	}
	if _, err := d.Runner.LookPath("modprobe"); err != nil {
		return err
	}
	_, err := d.Runner.Run(command.Request{Name: "modprobe", Args: []string{"i2c-dev"}})
	return err
}

// WaitForNodes watches Dir until an i2c-* entry is created.
func (d *NodeDevices) WaitForNodes(timeout time.Duration) bool {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return len(d.nodes()) > 0
	}
	defer watcher.Close()

	if err := watcher.Add(d.Dir); err != nil {
		return len(d.nodes()) > 0
	}
	if len(d.nodes()) > 0 {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Create) && strings.HasPrefix(filepath.Base(ev.Name), nodePrefix) {
				return true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return false
			}
			if d.Logger != nil {
				d.Logger.Debugw("watching device nodes", "dir", d.Dir, "err", err)
			}
		case <-timer.C:
			return len(d.nodes()) > 0
		}
	}
}
