// Package dispatch fans NBA requests out concurrently and joins on all of them.
package dispatch

import "net/http"

// Channel is one outbound request tracked by a dispatch.
type Channel struct {
	// Label keys the outcome: a service name, or a caller-supplied batch key.
	Label string
	// Service is the NBA service the request targets; empty for global endpoints.
	Service string
	URL     string
	// Body switches the request to POST with a JSON payload.
	Body []byte
}

// Method returns the HTTP method used for the channel.
func (c Channel) Method() string {
	if c.Body != nil {
		return http.MethodPost
	}
	return http.MethodGet
}
