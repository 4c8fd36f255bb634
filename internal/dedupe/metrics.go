package dedupe

import "expvar"

var (
	metricReserved   = expvar.NewInt("dedupe_reserved_total")
	metricDuplicates = expvar.NewInt("dedupe_duplicate_total")
	metricConflicts  = expvar.NewInt("dedupe_conflict_total")
	metricReplayHits = expvar.NewInt("dedupe_replay_hit_total")
	metricSwept      = expvar.NewInt("dedupe_swept_total")
)
