package metrics

// Names of the metrics recorded by the framework.
const (
	HTTPResponse = "app_http_response"
	ErrorsTotal  = "app_errors_total"
	RateLimited  = "app_http_rate_limited_total"
	MongoStats   = "app_mongo_stats"
	EmailsTotal  = "app_emails_total"
	MongoUp      = "app_mongo_up"
)

// RegisterFrameworkMetrics registers every metric the framework records itself.
func RegisterFrameworkMetrics(m Manager) {
	m.NewHistogram(HTTPResponse, "Histogram of HTTP response times in seconds",
		[]float64{.001, .003, .005, .01, .02, .03, .05, .1, .2, .3, .5, .75, 1, 2, 3, 5, 10, 30},
		"path", "method", "status")
	m.NewCounter(ErrorsTotal, "Number of failed requests by error code", "errorCode", "status")
	m.NewCounter(RateLimited, "Number of requests rejected by a rate limiter", "limiter")
	m.NewHistogram(MongoStats, "Response time of MongoDB queries in milliseconds",
		[]float64{.05, .075, .1, .125, .15, .2, .3, .5, .75, 1, 2, 3, 4, 5, 7.5, 10}, "type")
	m.NewCounter(EmailsTotal, "Number of emails handed to the mail transport", "template", "result")
	m.NewGauge(MongoUp, "Whether the last MongoDB health check succeeded")
}
