/*
Package observability turns walk lifecycle events into Prometheus metrics and
OpenTelemetry spans.

Both are exposed as domain.LifecycleHooks so they compose with logging hooks
through domain.ChainHooks.
*/
package observability
