// Package boxart fetches and caches application artwork.
// A small fixed-size worker pool fetches and caches
// artwork for a (host, app) pair so the HTTP API goroutine handling
// GET /apps is never blocked waiting on a slow remote fetch.
package boxart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/logger"
)

const workerCount = 4

// Request is one fetch-and-cache job.
type Request struct {
	HostUUID string
	AppID    int
	// URL is where to fetch the artwork from; callers resolve this from
	// the host's own serverinfo/applist response before enqueuing.
	URL string
}

type job struct {
	req    Request
	onDone func(path string)
}

// Fetcher runs a fixed pool of workers fetching and caching box-art,
// using go-getter as a generic fetch-with-cache client.
type Fetcher struct {
	cacheDir string
	log      *zap.SugaredLogger

	jobs chan job
	wg   sync.WaitGroup
	stop chan struct{}
}

// New constructs a fetcher rooted at cacheDir (tree laid out by host uuid,
// <appId>.png per file) and starts its worker pool.
func New(cacheDir string, log *zap.SugaredLogger) *Fetcher {
	f := &Fetcher{
		cacheDir: cacheDir,
		log:      logger.WithSymbol(log, "boxart"),
		jobs:     make(chan job, 64),
		stop:     make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		f.wg.Add(1)
		go f.worker()
	}
	return f
}

// CachePath returns where appID's artwork for hostUUID would be cached,
// whether or not it has been fetched yet.
func (f *Fetcher) CachePath(hostUUID string, appID int) string {
	return filepath.Join(f.cacheDir, hostUUID, fmt.Sprintf("%d.png", appID))
}

// Exists reports whether artwork is already cached for (hostUUID, appID).
func (f *Fetcher) Exists(hostUUID string, appID int) bool {
	_, err := os.Stat(f.CachePath(hostUUID, appID))
	return err == nil
}

// Enqueue schedules a fetch; onDone is invoked from a worker goroutine,
// never from the caller's own goroutine, once the fetch finishes
// (successfully or not).
func (f *Fetcher) Enqueue(req Request, onDone func(path string)) {
	select {
	case f.jobs <- job{req: req, onDone: onDone}:
	case <-f.stop:
	}
}

func (f *Fetcher) worker() {
	defer f.wg.Done()
	for {
		select {
		case j := <-f.jobs:
			f.process(j)
		case <-f.stop:
			return
		}
	}
}

func (f *Fetcher) process(j job) {
	if j.req.URL == "" {
		j.onDone("")
		return
	}

	dest := f.CachePath(j.req.HostUUID, j.req.AppID)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		f.log.Warnw("create artwork cache dir failed", "error", err)
		j.onDone("")
		return
	}

	client := &getter.Client{
		Src:  j.req.URL,
		Dst:  dest,
		Mode: getter.ClientModeFile,
		Ctx:  context.Background(),
	}
	if err := client.Get(); err != nil {
		f.log.Debugw("box-art fetch failed", "host", j.req.HostUUID, "app", j.req.AppID, "error", err)
		j.onDone("")
		return
	}
	j.onDone(dest)
}

// DeleteHost removes all cached artwork for a host, used by the delete
// task when a host is removed.
func (f *Fetcher) DeleteHost(hostUUID string) error {
	dir := filepath.Join(f.cacheDir, hostUUID)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "delete artwork cache for %s", hostUUID)
	}
	return nil
}

// Close stops the worker pool without waiting for in-flight fetches to
// complete.
func (f *Fetcher) Close() {
	close(f.stop)
}
