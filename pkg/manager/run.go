package manager

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	"github.com/sentineldb/datasetmgr/pkg/events"
	"github.com/sentineldb/datasetmgr/pkg/log"
	"github.com/sentineldb/datasetmgr/pkg/metrics"
	"github.com/sentineldb/datasetmgr/pkg/registry"
)

// Run enters the debounced update loop and blocks until ctx is cancelled or
// Stop is called. Each pass: drain the control inbox, snapshot the clock,
// flush every dataset whose debounce window has elapsed, rebuild and
// publish the ones that came out dirty, and sleep briefly if nothing
// happened.
//
// A StorageLoadFailed error during rebuild, or a ChannelClosed error during
// drain, is fatal and returns immediately — a rebuild failure means durable
// state has already moved past what's published, and a closed inbox means
// a sender was never supposed to go away while its dataset stays
// registered.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.drainFinal(context.Background())
			return nil
		case <-m.control:
			m.drainFinal(context.Background())
			m.broker.Publish(&events.Event{ID: uuid.NewString(), Type: events.EventManagerStopped})
			return nil
		default:
		}

		now := time.Now().UnixMilli()
		dirtyAny := false

		for _, id := range m.registry.IterateForFlush() {
			entry, ok := m.registry.Get(id)
			if !ok {
				continue
			}
			metrics.InboxDepth.WithLabelValues(id.TableName()).Set(float64(len(entry.Inbox)))
			if now < entry.LastFlushMillis+m.cfg.DebounceInterval.Milliseconds() {
				continue
			}

			dirty, err := m.drainInbox(ctx, entry)
			if err != nil {
				return err
			}
			if !dirty {
				continue
			}
			dirtyAny = true
			if err := m.rebuild(ctx, entry, now); err != nil {
				return err
			}
		}
		metrics.DebounceCycles.Inc()

		if !dirtyAny {
			time.Sleep(m.cfg.IdleSleep)
		}
	}
}

// drainInbox non-blockingly drains entry's inbox, applying every update to
// storage. A failed apply is logged and skipped — best-effort mutation,
// storage stays authoritative for what actually succeeded — and does not
// abort the drain. Inbox closure is reported as a ChannelClosed error.
func (m *Manager) drainInbox(ctx context.Context, entry *registry.Entry) (dirty bool, err error) {
	for {
		select {
		case u, ok := <-entry.Inbox:
			if !ok {
				return dirty, newError(CodeChannelClosed, "drain", entry.Identity, dataset.ErrChannelClosed)
			}
			if applyErr := m.store.Apply(ctx, entry.Identity, u); applyErr != nil {
				metrics.ApplyFailuresTotal.WithLabelValues(entry.Identity.TableName()).Inc()
				log.WithDataset(entry.Identity.TableName()).Error().Err(applyErr).Msg("apply failed, update dropped")
				m.broker.Publish(&events.Event{
					ID:      uuid.NewString(),
					Type:    events.EventDatasetApplyFailed,
					Message: applyErr.Error(),
				})
				continue
			}
			dirty = true
		default:
			return dirty, nil
		}
	}
}

// rebuild reloads entry's full snapshot from storage, publishes it, and
// advances its debounce clock. A load failure is fatal: the drain pass
// already mutated durable state, so publishing a stale snapshot here would
// mean readers never see the update that was just applied.
func (m *Manager) rebuild(ctx context.Context, entry *registry.Entry, now int64) error {
	timer := metrics.NewTimer()
	snap, err := m.store.Load(ctx, entry.Identity)
	timer.ObserveDurationVec(metrics.RebuildDuration, entry.Identity.TableName())
	if err != nil {
		m.broker.Publish(&events.Event{
			ID:      uuid.NewString(),
			Type:    events.EventDatasetLoadFailed,
			Message: err.Error(),
		})
		return newError(CodeStorageLoadFailed, "rebuild", entry.Identity, err)
	}

	m.publisher.Publish(entry.Identity, snap)
	entry.LastFlushMillis = now
	metrics.RebuildsTotal.WithLabelValues(entry.Identity.TableName()).Inc()
	m.broker.Publish(&events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventDatasetFlushed,
		Message: entry.Identity.String(),
	})
	return nil
}

// drainFinal runs one best-effort final flush+rebuild pass over every
// registered dataset on the way out. It always gets a fresh, short-lived
// context rather than the caller's: the caller's own context may already be
// cancelled (that's often why Run is exiting), and a final flush run against
// an already-done context would fail every store call immediately and
// accomplish nothing. Errors are logged, not returned: Stop must still
// return promptly.
func (m *Manager) drainFinal(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UnixMilli()
	for _, id := range m.registry.IterateForFlush() {
		entry, ok := m.registry.Get(id)
		if !ok {
			continue
		}
		dirty, err := m.drainInbox(ctx, entry)
		if err != nil {
			log.WithDataset(id.TableName()).Error().Err(err).Msg("final drain failed")
			continue
		}
		if !dirty {
			continue
		}
		if err := m.rebuild(ctx, entry, now); err != nil {
			log.WithDataset(id.TableName()).Error().Err(err).Msg("final rebuild failed")
		}
	}
}
