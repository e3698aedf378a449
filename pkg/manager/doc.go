/*
Package manager ties components A-F together into the embeddable dataset
manager: a registration façade plus the single debounced update loop that
drives storage apply/load and snapshot publication.

	┌──────────────────────────── Manager ────────────────────────────┐
	│                                                                   │
	│  Register(id)──► storage.EnsureSchema ──► storage.Load           │
	│                          │                       │               │
	│                          ▼                       ▼               │
	│                   registry.Registry       snapshot.Publisher      │
	│                    (inbox per id)          (atomic pointer)       │
	│                          │                       ▲               │
	│  SenderFor(id).Send(u) ──┘                       │               │
	│                                                   │               │
	│  Run(ctx): drain control → flush dirty inboxes ──►│ rebuild+publish│
	│            (storage.Apply)                        (storage.Load)  │
	└───────────────────────────────────────────────────────────────────┘

Register, SenderFor and Holder may be called from any goroutine, including
concurrently with Run — database/sql already serializes access to the single
SQLite connection, so nothing here needs its own storage-wide lock.

Usage:

	mgr, err := manager.New(manager.Config{Path: "/var/lib/sentineldb/datasets.db"})
	if err != nil {
		log.Fatal(err)
	}
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.Register(ctx, dataset.WellKnown(dataset.BlockDomain)); err != nil {
		log.Fatal(err)
	}

	go mgr.Run(ctx)

	sender, _ := mgr.SenderFor(dataset.WellKnown(dataset.BlockDomain))
	sender.Send(ctx, dataset.AddText{Key: "evil.example"})

	holder := mgr.Holder()
	snap, _ := holder.Get(dataset.WellKnown(dataset.BlockDomain))
	snap.Contains("evil.example") // visible after the next debounce window

See also pkg/dataset for the kind/identity/update/snapshot vocabulary,
pkg/storage for the durable side, pkg/registry and pkg/snapshot for the two
components this package wires together.
*/
package manager
