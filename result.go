package bioportal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Result holds the raw payloads and per-channel errors of one dispatch.
//
// Every channel label is present in Payloads, with a nil payload when no
// response body was received. A label appears in Errors when its channel
// failed; such a channel may still carry the NBA error document as payload.
type Result struct {
	labels   []string
	payloads map[string][]byte
	errs     map[string]error
	urls     map[string]string
}

func newResult(outcomes []dispatch.Outcome) *Result {
	r := &Result{
		labels:   make([]string, 0, len(outcomes)),
		payloads: make(map[string][]byte, len(outcomes)),
		errs:     make(map[string]error),
		urls:     make(map[string]string, len(outcomes)),
	}
	for _, o := range outcomes {
		r.labels = append(r.labels, o.Label())
		r.payloads[o.Label()] = o.Payload()
		r.urls[o.Label()] = o.Channel().URL
		if o.Err() != nil {
			r.errs[o.Label()] = o.Err()
		}
	}
	return r
}

// Len returns the number of channels.
func (r *Result) Len() int { return len(r.labels) }

// IsSingle reports whether exactly one channel was dispatched.
func (r *Result) IsSingle() bool { return len(r.labels) == 1 }

// Labels returns the channel labels in dispatch order.
func (r *Result) Labels() []string { return append([]string(nil), r.labels...) }

// Raw returns the payload of a single-channel dispatch, nil otherwise.
func (r *Result) Raw() []byte {
	if !r.IsSingle() {
		return nil
	}
	return r.payloads[r.labels[0]]
}

// Payload returns the payload for a label.
func (r *Result) Payload(label string) ([]byte, bool) {
	p, ok := r.payloads[label]
	return p, ok
}

// Payloads returns label → payload for all channels.
func (r *Result) Payloads() map[string][]byte {
	out := make(map[string][]byte, len(r.payloads))
	for k, v := range r.payloads {
		out[k] = v
	}
	return out
}

// Errors returns label → error for the failed channels.
func (r *Result) Errors() map[string]error {
	out := make(map[string]error, len(r.errs))
	for k, v := range r.errs {
		out[k] = v
	}
	return out
}

// Err joins the channel errors in dispatch order; nil if all succeeded.
func (r *Result) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.errs))
	for _, l := range r.labels {
		if err, ok := r.errs[l]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// URL returns the request URL of a label.
func (r *Result) URL(label string) string { return r.urls[label] }

// Decode unmarshals the payload of a single-channel dispatch into v.
func (r *Result) Decode(v any) error {
	if !r.IsSingle() {
		return domain.Statef("decode: result has %d channels, use DecodeLabel", r.Len())
	}
	return r.DecodeLabel(r.labels[0], v)
}

// DecodeLabel unmarshals the payload of one channel into v. A failed channel
// returns its error.
func (r *Result) DecodeLabel(label string, v any) error {
	p, ok := r.payloads[label]
	if !ok {
		return fmt.Errorf("decode %q: %w", label, domain.ErrNotFound)
	}
	if err := r.errs[label]; err != nil {
		return err
	}
	if err := json.Unmarshal(p, v); err != nil {
		return fmt.Errorf("decode %q: %w", label, err)
	}
	return nil
}
