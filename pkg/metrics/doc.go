/*
Package metrics defines drover's Prometheus instrumentation.

Collectors are package-level and registered at init: reconciliation
counters and duration, event processing and deferral counters,
lifecycle and configuration gauges, the one-hot status gauge and
failover publication counters. Handler() exposes them for the /metrics
endpoint; Timer helps observe durations into histograms.
*/
package metrics
