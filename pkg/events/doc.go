/*
Package events provides an in-memory event broker for the dataset manager's
administrative notifications.

It is a lightweight, topic-agnostic pub/sub bus: every event is broadcast to
every subscriber, non-blocking, with no delivery guarantee. It exists so an
embedder can watch dataset lifecycle activity (registrations, flushes, apply
failures) without the manager's update loop taking a dependency on whoever is
watching.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  Publisher → Event Channel (buffer: 100)                 │
	│       ↓                                                    │
	│  Broadcast Loop                                            │
	│       ↓                                                    │
	│  Subscriber Channels (buffer: 50 each)                    │
	└────────────────────────────────────────────────────────┘

# Event types

  - dataset.registered: a dataset's Register call completed
  - dataset.flushed: a rebuild finished and the dataset's snapshot was published
  - dataset.apply_failed: a mutation was dropped after StorageApplyFailed
  - dataset.load_failed: a rebuild aborted the whole manager run
  - manager.stopped: the update loop returned after a Stop call (not
    published when Run returns because its context was cancelled or a
    fatal error occurred)

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s: %s\n", event.Timestamp.Format(time.RFC3339), event.Type, event.Message)
		}
	}()

Publish never blocks on a slow subscriber: a subscriber whose buffer is full
simply misses the event. This bus is for observability, not for coordinating
correctness-critical behavior inside the manager itself.
*/
package events
