// Package metrics exposes the prometheus collectors the node core reports
// into. It is ambient instrumentation: the core never depends on this
// package's internals, only on calling the package-level record functions.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "brypt"

// Registry is the node's private prometheus registry; using a private
// registry (rather than the global default) keeps repeated test-process
// registration from panicking on duplicate collectors.
var Registry = prometheus.NewRegistry()
