// Package metrics exposes stubd counters in the Prometheus text format.
//
// The package has no external dependencies. A Registry holds labeled
// counters and histograms plus scrape-time gauge funcs and serves them from
// Handler. Set bundles the
// metrics stubd itself records:
//
//	stubd_requests_total{result}            mock traffic by matched/unmatched
//	stubd_request_duration_seconds{result}  mock traffic latency
//	stubd_rules_installed                   rules currently in the engine
//	stubd_admin_requests_total{method,status}
//	stubd_uptime_seconds
//
// Mock traffic is observed through Set.Journal, which wraps the request
// journal handed to the engine, so the engine does not need to know about
// metrics.
package metrics
