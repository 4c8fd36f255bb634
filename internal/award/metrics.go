package award

import "expvar"

var (
	metricAwardsGranted   = expvar.NewInt("awards_granted_total")
	metricAwardsReplayed  = expvar.NewInt("awards_replayed_total")
	metricAwardsRejected  = expvar.NewInt("awards_rejected_total")
	metricAdjustments     = expvar.NewInt("awards_adjustments_total")
	metricEventsPublished = expvar.NewInt("change_events_published_total")
	metricEventGaps       = expvar.NewInt("change_events_gap_total")
	metricEventWatchers   = expvar.NewInt("change_event_watchers")
)
