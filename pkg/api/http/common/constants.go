package common

const (
	API_JOBS    = "/api/v1/jobs"
	API_CANCEL  = "/api/v1/cancel"
	API_HEALTH  = "/healthz"
	API_METRICS = "/metrics"
)
