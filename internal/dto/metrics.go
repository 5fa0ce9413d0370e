package dto

import "time"

// MetricsSummary is a lightweight JSON view over the Prometheus collectors.
type MetricsSummary struct {
	RequestsTotal             uint64            `json:"requestsTotal"`
	AverageRequestDurationMs  float64           `json:"averageRequestDurationMs"`
	UpstreamCalls             uint64            `json:"upstreamCalls"`
	UpstreamFailures          uint64            `json:"upstreamFailures"`
	AverageUpstreamDurationMs float64           `json:"averageUpstreamDurationMs"`
	StoreOutcomes             map[string]uint64 `json:"storeOutcomes"`
	CacheHits                 uint64            `json:"cacheHits"`
	CacheMisses               uint64            `json:"cacheMisses"`
	CacheHitRatio             float64           `json:"cacheHitRatio"`
	Goroutines                int               `json:"goroutines"`
	GeneratedAt               time.Time         `json:"generatedAt"`
}
