/*
Package domain contains the core model of a plan graph.

It defines the closed set of component variants, the arena-backed graph that
holds them, the halting rules consulted during a walk, and the append-only log
of full-graph snapshots. The package is pure: no I/O, no persistence.

# Key Entities

  - Component: sealed interface implemented by Root, ComponentA, ComponentB and ComponentC.
  - Graph: nodes addressed by NodeHandle, labeled edges, one designated root.
  - Lease: exclusive right to flip visited flags while a walk is in progress.
  - HaltRules: (kind, state) pairs that stop a walk when visited.
  - Log: ordered snapshots, each a complete JSON document of the graph.
  - Run: the persisted outcome of a walk.
*/
package domain
