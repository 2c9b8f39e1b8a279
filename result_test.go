package bioportal

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
)

func testResult() *Result {
	a := dispatch.Channel{Label: "a", Service: "specimen", URL: "http://nba/specimen/count/"}
	b := dispatch.Channel{Label: "b", Service: "taxon", URL: "http://nba/taxon/count/"}
	c := dispatch.Channel{Label: "c", Service: "geo", URL: "http://nba/geo/count/"}
	return newResult([]dispatch.Outcome{
		dispatch.NewOK(a, []byte(`7`), http.StatusOK, time.Millisecond),
		dispatch.NewError(b, []byte(`{"message":"bad"}`), http.StatusBadRequest, time.Millisecond,
			&ChannelError{Label: "b", StatusCode: http.StatusBadRequest}),
		dispatch.NewError(c, nil, 0, time.Millisecond,
			&ChannelError{Label: "c", Err: errors.New("connection refused")}),
	})
}

func TestResult_Accessors(t *testing.T) {
	r := testResult()

	assert.Equal(t, 3, r.Len())
	assert.False(t, r.IsSingle())
	assert.Nil(t, r.Raw())
	assert.Equal(t, []string{"a", "b", "c"}, r.Labels())
	assert.Equal(t, "http://nba/taxon/count/", r.URL("b"))
	assert.Empty(t, r.URL("missing"))

	payloads := r.Payloads()
	require.Len(t, payloads, 3)
	assert.Nil(t, payloads["c"])
	assert.Equal(t, `{"message":"bad"}`, string(payloads["b"]))

	errs := r.Errors()
	require.Len(t, errs, 2)
	assert.NotContains(t, errs, "a")
}

func TestResult_Err(t *testing.T) {
	r := testResult()
	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), `"b"`)
	assert.Contains(t, err.Error(), "connection refused")

	ok := newResult([]dispatch.Outcome{
		dispatch.NewOK(dispatch.Channel{Label: "x"}, []byte(`1`), http.StatusOK, 0),
	})
	assert.NoError(t, ok.Err())
	assert.True(t, ok.IsSingle())
	assert.Equal(t, []byte(`1`), ok.Raw())
}

func TestResult_Decode(t *testing.T) {
	r := testResult()

	var n int
	require.NoError(t, r.DecodeLabel("a", &n))
	assert.Equal(t, 7, n)

	var ce *ChannelError
	assert.True(t, errors.As(r.DecodeLabel("b", &n), &ce))
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)

	assert.ErrorIs(t, r.DecodeLabel("missing", &n), ErrNotFound)
	assert.ErrorIs(t, r.Decode(&n), ErrState)
}

func TestResult_CopiesAreIndependent(t *testing.T) {
	r := testResult()

	labels := r.Labels()
	labels[0] = "z"
	delete(r.Payloads(), "a")
	delete(r.Errors(), "b")

	assert.Equal(t, "a", r.Labels()[0])
	_, ok := r.Payload("a")
	assert.True(t, ok)
	assert.Len(t, r.Errors(), 2)
}
