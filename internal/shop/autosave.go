package shop

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultAutosaveInterval is how often the dirty flag is checked.
const DefaultAutosaveInterval = 5 * time.Minute

// Saver persists a point-in-time snapshot. Satisfied by Persister.
type Saver interface {
	Save(snapshot []*Shop) error
}

// Autosaver periodically flushes a dirty registry to disk.
//
// Mutations only set the dirty flag, so the hot transaction path never
// blocks on IO. Each cycle takes a synchronous point-in-time snapshot,
// clears the flag, and performs the write in the background; a failed
// write re-marks the registry dirty so the next cycle retries.
//
// At most one write is in flight at a time: a tick that fires while a
// write is still running is skipped, so an older snapshot's rename can
// never land after a newer one. Close stops the timer and waits for the
// in-flight write before performing the final synchronous save.
type Autosaver struct {
	reg      *Registry
	saver    Saver
	interval time.Duration
	log      *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	writes   sync.WaitGroup
	saving   atomic.Bool
	stopOnce sync.Once
}

// NewAutosaver creates an autosaver. A non-positive interval falls back to
// DefaultAutosaveInterval.
func NewAutosaver(reg *Registry, saver Saver, interval time.Duration, log *slog.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Autosaver{
		reg:      reg,
		saver:    saver,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic save loop.
func (a *Autosaver) Start() {
	go a.run()
	a.log.Info("autosave started", "interval", a.interval)
}

func (a *Autosaver) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			// Skip the cycle while a write is still in flight; the dirty
			// flag keeps the pending state scheduled for the next tick.
			if a.saving.Load() || !a.reg.Dirty() {
				continue
			}
			// Snapshot synchronously so a concurrent mutation during the
			// write cannot corrupt the serialized state.
			snapshot := a.reg.Snapshot()
			a.reg.ClearDirty()

			a.saving.Store(true)
			a.writes.Add(1)
			go func() {
				defer a.writes.Done()
				defer a.saving.Store(false)
				if err := a.saver.Save(snapshot); err != nil {
					a.reg.MarkDirty()
					return
				}
				a.log.Info("auto-saved shops", "count", len(snapshot))
			}()
		}
	}
}

// Close stops the timer, waits for any in-flight background write, and
// performs one final synchronous save if any records exist.
func (a *Autosaver) Close() error {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
	a.writes.Wait()

	if a.reg.Len() == 0 && !a.reg.Dirty() {
		return nil
	}
	snapshot := a.reg.Snapshot()
	a.reg.ClearDirty()
	if err := a.saver.Save(snapshot); err != nil {
		a.reg.MarkDirty()
		return err
	}
	a.log.Info("shops saved on shutdown", "count", len(snapshot))
	return nil
}
