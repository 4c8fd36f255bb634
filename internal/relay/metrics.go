package relay

import "expvar"

var (
	metricRelayQueued         = expvar.NewInt("relay_queued_total")
	metricRelayPersisted      = expvar.NewInt("relay_persisted_total")
	metricRelayDuplicate      = expvar.NewInt("relay_duplicate_total")
	metricRelayFailed         = expvar.NewInt("relay_failed_total")
	metricRelayRetry          = expvar.NewInt("relay_retry_total")
	metricRelayDeadLettered   = expvar.NewInt("relay_dead_lettered_total")
	metricRelayEnqueueTimeout = expvar.NewInt("relay_enqueue_timeout_total")
	metricRelayQueueLen       = expvar.NewInt("relay_queue_len")
)
