/*
Package storage provides BoltDB-backed state persistence for the drover agent.

The storage package implements the Store interface using BoltDB as the
underlying database, providing ACID transactions for the agent's durable
records: haproxy lifecycle bookkeeping, the last applied topology, and the
last reported status. All data is serialized as JSON and stored in separate
buckets, each holding a single record under a fixed key.

# Architecture

Drover uses BoltDB (bbolt) for embedded, transactional storage with zero
external dependencies:

	┌──────────────────── BOLTDB STORAGE ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐           │
	│  │            BoltStore                        │           │
	│  │  - File: <dataDir>/drover.db                │           │
	│  │  - Format: B+tree with MVCC                 │           │
	│  │  - Transactions: ACID with fsync            │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │              Bucket Structure               │           │
	│  │  ┌────────────────────────────┐             │           │
	│  │  │ lifecycle    (fixed key)   │             │           │
	│  │  │ topology     (fixed key)   │             │           │
	│  │  │ status       (fixed key)   │             │           │
	│  │  └────────────────────────────┘             │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │        Transaction Management               │           │
	│  │  - Read: db.View() - Concurrent reads       │           │
	│  │  - Write: db.Update() - Serialized writes   │           │
	│  │  - Rollback: Automatic on error              │           │
	│  │  - Commit: Automatic on success + fsync      │           │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Core Components

BoltStore:
  - Implements Store interface using BoltDB
  - Single database file per agent
  - Automatic bucket creation on initialization
  - Thread-safe via BoltDB's transaction model

Buckets:
  - lifecycle: Install/start bookkeeping for the managed haproxy process
  - topology: Last topology the agent applied to haproxy
  - status: Last status the agent reported

Each bucket holds exactly one record under the key "current". Saves are
whole-value upserts; loads of an absent record return (nil, nil) so a
fresh data directory reads as "nothing recorded yet" rather than an
error.

# Usage

Creating a Store:

	store, err := storage.NewBoltStore("/var/lib/drover")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

Lifecycle bookkeeping:

	state, err := store.LoadLifecycleState()
	if state == nil {
		// first boot, nothing installed yet
	}

	state.Installed = true
	err = store.SaveLifecycleState(state)

Applied topology:

	err := store.SaveTopology(topology)
	topology, err := store.LoadTopology()

# Integration Points

This package integrates with:

  - pkg/haproxy: InstanceManager persists LifecycleState across restarts
  - pkg/controller: Persists the applied topology after each reconcile
  - pkg/status: Recorder persists the reported status
  - pkg/types: Record definitions

# Design Notes

The agent is the only writer; BoltDB's file lock enforces that a second
drover process cannot open the same data directory. The database file is
created 0600 so only the agent's user can read the recorded topology.

Schema changes are handled via JSON flexibility: new fields unmarshal to
zero values from old records, and removed fields are ignored.
*/
package storage
