package billify

import (
	"net/http"

	"billify.site/pkg/billify/datasource/mongo"
	billifyHTTP "billify.site/pkg/billify/http"
)

const (
	pathHealth  = "/health"
	pathMetrics = "/metrics"
)

// healthHandler reports the datasource health, answering 503 while any is down.
func healthHandler(c *Context) (any, error) {
	health := c.Health(c)

	if health["status"] != mongo.StatusUp {
		return billifyHTTP.Response{StatusCode: http.StatusServiceUnavailable, Data: health}, nil
	}

	return health, nil
}
