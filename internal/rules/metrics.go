package rules

import "expvar"

var (
	metricRuleReloads      = expvar.NewInt("rules_reload_total")
	metricRuleReloadErrors = expvar.NewInt("rules_reload_error_total")
	metricRuleVersion      = expvar.NewInt("rules_active_version")
	metricRuleCount        = expvar.NewInt("rules_active_count")
)
