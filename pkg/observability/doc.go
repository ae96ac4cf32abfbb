/*
Package observability turns editor lifecycle hooks into Prometheus metrics and
structured log lines.

Both are plain domain.LifecycleHooks, so they compose with
LifecycleHooks.Merge and lattice.WithLifecycleHooks.
*/
package observability
