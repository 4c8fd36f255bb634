package httptransport

import "expvar"

var (
	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")
	metricSSEGapsSignalled     = expvar.NewInt("sse_gaps_signalled_total")
)
