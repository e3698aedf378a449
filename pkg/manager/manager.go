package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	"github.com/sentineldb/datasetmgr/pkg/events"
	"github.com/sentineldb/datasetmgr/pkg/log"
	"github.com/sentineldb/datasetmgr/pkg/metrics"
	"github.com/sentineldb/datasetmgr/pkg/registry"
	"github.com/sentineldb/datasetmgr/pkg/snapshot"
	"github.com/sentineldb/datasetmgr/pkg/storage"
)

// Default tuning values for Config.
const (
	DefaultDebounceInterval = 5000 * time.Millisecond
	DefaultSendTimeout      = 1 * time.Second
	DefaultIdleSleep        = 100 * time.Millisecond
)

// Config holds the tunables for a Manager. The zero value of every field
// falls back to the corresponding Default* constant, except InboxCapacity
// which falls back to registry.DefaultInboxCapacity.
type Config struct {
	// Path is the SQLite file the durable store opens. Ignored if InMemory
	// is set.
	Path string
	// InMemory opens an ephemeral store instead of a file at Path, for
	// tests and embedders that don't need durability.
	InMemory bool

	DebounceInterval time.Duration
	InboxCapacity    int
	SendTimeout      time.Duration
	IdleSleep        time.Duration
}

func (c Config) withDefaults() Config {
	if c.DebounceInterval == 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
	if c.InboxCapacity <= 0 {
		c.InboxCapacity = registry.DefaultInboxCapacity
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = DefaultIdleSleep
	}
	return c
}

// Manager is the registration façade and the debounced update loop that
// drives it. Exactly one goroutine should call Run; Register, SenderFor and
// Holder are safe to call from any goroutine, including concurrently with
// Run, because the underlying database/sql handle serializes access to the
// single SQLite connection on its own.
type Manager struct {
	store     storage.Storage
	registry  *registry.Registry
	publisher *snapshot.Publisher
	broker    *events.Broker
	cfg       Config

	registerMu sync.Mutex
	control    chan stopMsg
}

type stopMsg struct{}

// New opens (or creates) a durable SQLite-backed manager at cfg.Path, or an
// in-memory one if cfg.InMemory is set. Fails with a StorageOpenFailed Error
// on I/O errors.
func New(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	var (
		store storage.Storage
		err   error
	)
	if cfg.InMemory {
		store, err = storage.OpenInMemory()
	} else {
		store, err = storage.Open(cfg.Path)
	}
	if err != nil {
		return nil, newError(CodeStorageOpenFailed, "new", nil, err)
	}

	broker := events.NewBroker()
	broker.Start()

	return &Manager{
		store:     store,
		registry:  registry.New(),
		publisher: snapshot.NewPublisher(),
		broker:    broker,
		cfg:       cfg,
		control:   make(chan stopMsg),
	}, nil
}

// InMemory is shorthand for New(Config{InMemory: true}), for tests.
func InMemory() (*Manager, error) {
	return New(Config{InMemory: true})
}

// Events returns the lifecycle event broker: dataset.registered,
// dataset.flushed, dataset.apply_failed and manager.stopped notifications
// for embedders that want observability beyond the holder/metrics surface.
// Nothing about the snapshot contract depends on anyone subscribing.
func (m *Manager) Events() *events.Broker {
	return m.broker
}

// Register creates identity's schema, loads its initial snapshot, allocates
// its inbox and atomic pointer slot, and publishes the first snapshot. It is
// idempotent — registering an already-registered identity is a no-op that
// leaves LastFlushMillis untouched.
func (m *Manager) Register(ctx context.Context, id dataset.Identity) error {
	m.registerMu.Lock()
	defer m.registerMu.Unlock()

	if _, ok := m.registry.Get(id); ok {
		return nil
	}

	if err := m.store.EnsureSchema(ctx, id); err != nil {
		return newError(CodeStorageOpenFailed, "register", id, err)
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return newError(CodeStorageLoadFailed, "register", id, err)
	}

	entry, _ := m.registry.Register(id, m.cfg.InboxCapacity)
	// The debounce clock starts at registration, not zero: otherwise the
	// very first burst of updates would be flushed immediately instead of
	// collapsing into one rebuild like every later burst.
	entry.LastFlushMillis = time.Now().UnixMilli()
	m.publisher.Register(id)
	m.publisher.Publish(id, snap)

	metrics.DatasetsRegistered.Set(float64(m.registry.Len()))
	m.broker.Publish(&events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventDatasetRegistered,
		Message: fmt.Sprintf("registered dataset %s", id),
	})
	log.WithDataset(id.TableName()).Info().Msg("registered")
	return nil
}

// Holder returns a cheap, fixed-slot clone of the current reader bundle.
// Datasets registered after this call are invisible to the returned Holder
// — call Holder again to see them.
func (m *Manager) Holder() *snapshot.Holder {
	return m.publisher.Holder()
}

// SenderFor returns a mutation handle for identity. It fails with
// NotRegistered if identity hasn't been registered yet.
func (m *Manager) SenderFor(id dataset.Identity) (*SynchronizedDataset, error) {
	entry, ok := m.registry.Get(id)
	if !ok {
		return nil, newError(CodeNotRegistered, "sender_for", id, dataset.ErrNotRegistered)
	}
	ptr := m.publisher.Register(id)
	return &SynchronizedDataset{
		id:          id,
		inbox:       entry.Inbox,
		pointer:     ptr,
		sendTimeout: m.cfg.SendTimeout,
	}, nil
}

// Stop signals the update loop to finish its current iteration, drain every
// inbox one last time, publish final snapshots and return. It blocks until
// Run has received the signal, unless ctx is cancelled first; it does not
// wait for the final drain or for Run to return.
func (m *Manager) Stop(ctx context.Context) error {
	select {
	case m.control <- stopMsg{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the underlying storage handle and stops the event broker.
// Run must have already returned.
func (m *Manager) Close() error {
	m.broker.Stop()
	return m.store.Close()
}
