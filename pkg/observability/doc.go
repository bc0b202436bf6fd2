/*
Package observability provides lifecycle hooks for monitoring a Tendril dispatcher.

Metrics records Prometheus counters and histograms for registrations,
dispatches and suggestions. AuditLog writes one structured log record per
event. Both return domain.LifecycleHooks and can be combined with
domain.ComposeHooks.
*/
package observability
