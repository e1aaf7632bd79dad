package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// HTTPLatency records request latency by route.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "board_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// WritesCreated counts created posts, replies and comments per board.
	WritesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_writes_created_total",
		Help: "Total created rows by board and kind",
	}, []string{"bo_table", "kind"})

	// ReplyExhausted counts rejected replies because a depth ran out of letters.
	ReplyExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_reply_exhausted_total",
		Help: "Total replies rejected because the reply alphabet was exhausted",
	}, []string{"bo_table"})

	// ThrottleRejections counts writes refused inside the cool-down window.
	ThrottleRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_throttle_rejections_total",
		Help: "Total writes rejected by the write delay",
	}, []string{"action"})

	// SearchKeywords counts keyword terms handed to the popularity tracker.
	SearchKeywords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_search_keywords_total",
		Help: "Total search terms recorded",
	})

	// KeywordDrops counts terms dropped because the tracker queue was full or failed.
	KeywordDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_search_keyword_drops_total",
		Help: "Total search terms dropped by the popularity tracker",
	})
)
