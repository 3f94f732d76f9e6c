/*
Package ports defines the driven ports (interfaces) for the plangraph engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various plan sources and storage backends.

# Key Interfaces

  - GraphLoader: Responsible for producing a plan graph (e.g., from Loam, a plan file or memory).
  - SnapshotStore: Responsible for persisting runs and their snapshot logs.
  - DistributedLocker: Provides distributed locking for handling concurrent run access.
  - Walker: Runs a walk; implemented by the root engine and consumed by HTTP and MCP adapters.
*/
package ports
