package dispatcher

import "github.com/ethereum/go-ethereum/metrics"

var (
	claimsSubmittedCounter = metrics.NewRegisteredCounter("dispatcher/claims/submitted", nil)
	claimsSkippedCounter   = metrics.NewRegisteredCounter("dispatcher/claims/skipped", nil)
	passCounter            = metrics.NewRegisteredCounter("dispatcher/passes", nil)
	passErrorCounter       = metrics.NewRegisteredCounter("dispatcher/passes/errors", nil)
	thresholdGauge         = metrics.NewRegisteredGauge("dispatcher/threshold", nil)
)
