package vetis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rtFunc lets a test script HTTP exchanges without a real listener.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func httpResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

// memAudit collects audit entries in memory.
type memAudit struct {
	entries []AuditEntry
}

func (m *memAudit) Record(_ context.Context, entry AuditEntry) {
	m.entries = append(m.entries, entry)
}

// fastPolicy keeps the attempt count but drops all waiting.
func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Delays: make([]time.Duration, attempts),
		Sleep:  func(time.Duration) {},
	}
}

func testEndpoints() Endpoints {
	return Endpoints{
		ProductiveBaseURL: "https://registry.example",
		TestBaseURL:       "https://registry-test.example",
	}
}

func testAccount() Account {
	return Account{
		Name:      "acme",
		Login:     "acme-user",
		Password:  "secret",
		APIKey:    "key",
		ServiceID: "acme-svc",
		IssuerID:  "issuer-1",
	}
}

func newTestClient(rt rtFunc, audit AuditSink, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Transport: rt}),
		WithSendPolicy(fastPolicy(3)),
		WithPollPolicy(fastPolicy(4)),
		WithPagePause(0),
	}
	return NewClient(testEndpoints(), audit, append(base, opts...)...)
}

const okEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body><ok/></soapenv:Body></soapenv:Envelope>`

func TestSendRetriesConnectionFailures(t *testing.T) {
	audit := &memAudit{}
	calls := 0
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return httpResponse(200, okEnvelope), nil
	}, audit)

	resp, err := client.Send(context.Background(), testAccount(), ProductByGUIDRequest("g-1"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, calls)

	// Every attempt is audited: two connection failures, one success.
	require.Len(t, audit.entries, 3)
	assert.Equal(t, AuditStatusConnFailed, audit.entries[0].StatusCode)
	assert.Equal(t, AuditStatusConnFailed, audit.entries[1].StatusCode)
	assert.Equal(t, 200, audit.entries[2].StatusCode)
	assert.Contains(t, audit.entries[0].ResponseBody, "connection refused")
}

func TestSendGivesUpAfterAllAttempts(t *testing.T) {
	audit := &memAudit{}
	calls := 0
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("no route to host")
	}, audit)

	_, err := client.Send(context.Background(), testAccount(), ProductByGUIDRequest("g-1"))
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 3, terr.Attempts)
	assert.Equal(t, "GetProductByGuid", terr.Action)
	assert.Equal(t, 3, calls)
	require.Len(t, audit.entries, 3)
	for _, e := range audit.entries {
		assert.Equal(t, AuditStatusConnFailed, e.StatusCode)
	}
}

func TestSendDoesNotRetryHTTPErrors(t *testing.T) {
	audit := &memAudit{}
	calls := 0
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return httpResponse(500, "boom"), nil
	}, audit)

	_, err := client.Send(context.Background(), testAccount(), ProductByGUIDRequest("g-1"))
	require.Error(t, err)

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "HTTP 500", perr.Status)
	// The registry answered: one attempt, one audit entry, no retry.
	assert.Equal(t, 1, calls)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, 500, audit.entries[0].StatusCode)
	assert.Equal(t, "boom", audit.entries[0].ResponseBody)
}

func TestSendUsesCredentialsAndEndpoint(t *testing.T) {
	var seen *http.Request
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		seen = r
		return httpResponse(200, okEnvelope), nil
	}, nil)

	acc := testAccount()
	acc.Productive = true
	_, err := client.Send(context.Background(), acc, EnterpriseByGUIDRequest("g-2"))
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "https://registry.example/platform/services/2.1/EnterpriseService", seen.URL.String())
	assert.Equal(t, "GetEnterpriseByGuid", seen.Header.Get("SOAPAction"))
	user, pass, ok := seen.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "acme-user", user)
	assert.Equal(t, "secret", pass)
}

func TestEndpointsResolvePerEnvironment(t *testing.T) {
	e := testEndpoints()
	assert.Equal(t, "https://registry.example/platform/services/2.1/ProductService",
		e.Resolve(ServiceProduct, true))
	assert.Equal(t, "https://registry-test.example/platform/services/2.1/ProductService",
		e.Resolve(ServiceProduct, false))
}
