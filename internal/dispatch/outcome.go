package dispatch

import "time"

// Status is the terminal state of a channel.
type Status string

// Channel status values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Outcome is the result of one channel. A failed channel may still carry the
// response body, e.g. the NBA error document of a 4xx/5xx reply.
type Outcome struct {
	channel    Channel
	status     Status
	payload    []byte
	statusCode int
	duration   time.Duration
	err        error
}

// NewOK creates a successful outcome.
func NewOK(ch Channel, payload []byte, statusCode int, d time.Duration) Outcome {
	return Outcome{channel: ch, status: StatusOK, payload: payload, statusCode: statusCode, duration: d}
}

// NewError creates a failed outcome.
func NewError(ch Channel, payload []byte, statusCode int, d time.Duration, err error) Outcome {
	return Outcome{
		channel:    ch,
		status:     StatusError,
		payload:    payload,
		statusCode: statusCode,
		duration:   d,
		err:        err,
	}
}

// Channel returns the channel this outcome belongs to.
func (o Outcome) Channel() Channel { return o.channel }

// Label returns the channel label.
func (o Outcome) Label() string { return o.channel.Label }

// Status returns the terminal state.
func (o Outcome) Status() Status { return o.status }

// Payload returns the raw response body, nil if none was received.
func (o Outcome) Payload() []byte { return o.payload }

// StatusCode returns the HTTP status, zero if no response was received.
func (o Outcome) StatusCode() int { return o.statusCode }

// Duration returns the wall time of the request.
func (o Outcome) Duration() time.Duration { return o.duration }

// Err returns the error, if any.
func (o Outcome) Err() error { return o.err }
