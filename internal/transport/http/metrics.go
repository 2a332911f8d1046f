package httptransport

import "expvar"

var (
	metricSessionStartTotal  = expvar.NewInt("session_start_total")
	metricSessionStartErrors = expvar.NewInt("session_start_errors_total")

	metricMessageTotal  = expvar.NewInt("message_total")
	metricMessageErrors = expvar.NewInt("message_errors_total")

	metricClaimTotal  = expvar.NewInt("claim_total")
	metricClaimErrors = expvar.NewInt("claim_errors_total")

	metricTradeTotal  = expvar.NewInt("trade_total")
	metricTradeErrors = expvar.NewInt("trade_errors_total")
)
