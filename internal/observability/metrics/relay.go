// Package metrics provides Prometheus instrumentation for the relay.
package metrics

// RecordUpstreamRequest records one outbound call to the data provider.
func RecordUpstreamRequest(endpoint, status string) {
	if !enabled {
		return
	}
	upstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordRiskAnalysis records one risk capability request.
func RecordRiskAnalysis(capability, status string) {
	if !enabled {
		return
	}
	riskAnalysisTotal.WithLabelValues(capability, status).Inc()
}

// RecordMarketRequest records one market data request.
func RecordMarketRequest(operation, status string) {
	if !enabled {
		return
	}
	marketRequestTotal.WithLabelValues(operation, status).Inc()
}
