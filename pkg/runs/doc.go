/*
Package runs orchestrates access to persisted walk runs.

It serializes operations per run ID with reference-counted local mutexes and,
when configured, a distributed lock so several replicas can share one store.
*/
package runs
