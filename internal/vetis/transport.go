package vetis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditStatusConnFailed is the sentinel status recorded when a request never
// reached the registry.
const AuditStatusConnFailed = -1

// AuditEntry is one recorded exchange with the registry, successful or not.
type AuditEntry struct {
	SOAPAction   string
	RequestBody  string
	StatusCode   int
	ResponseBody string
	Comment      string
}

// AuditSink receives one entry per transport attempt. The repository layer
// provides the durable implementation; recording must never fail a request,
// so the sink returns nothing.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

// Response is a successful (2xx) exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client talks to the registry. One instance is shared by all workflows;
// per-call state (account, environment) arrives with each request.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	audit      AuditSink
	sendPolicy RetryPolicy
	pollPolicy RetryPolicy
	pageSize   int
	pagePause  time.Duration
	now        func() time.Time
}

// Option tweaks a Client; used by tests to shrink budgets and freeze time.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option       { return func(c *Client) { c.httpClient = h } }
func WithSendPolicy(p RetryPolicy) Option        { return func(c *Client) { c.sendPolicy = p } }
func WithPollPolicy(p RetryPolicy) Option        { return func(c *Client) { c.pollPolicy = p } }
func WithPageSize(n int) Option                  { return func(c *Client) { c.pageSize = n } }
func WithPagePause(d time.Duration) Option       { return func(c *Client) { c.pagePause = d } }
func WithClock(now func() time.Time) Option      { return func(c *Client) { c.now = now } }

// NewClient builds a registry client with the default retry/poll budgets.
func NewClient(endpoints Endpoints, audit AuditSink, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoints:  endpoints,
		audit:      audit,
		sendPolicy: DefaultSendPolicy(),
		pollPolicy: DefaultPollPolicy(),
		pageSize:   1000,
		pagePause:  500 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs one signed exchange. Connection-level failures are retried
// per the send policy; application-level failures (non-2xx) are not. Every
// attempt is appended to the audit log.
func (c *Client) Send(ctx context.Context, acc Account, req Request) (*Response, error) {
	endpoint := c.endpoints.Resolve(req.Service, acc.Productive)
	comment := fmt.Sprintf("%s via %s (%s)", acc.Name, endpoint, environmentName(acc.Productive))

	var lastErr error
	for attempt := 0; attempt < c.sendPolicy.Attempts(); attempt++ {
		c.sendPolicy.Wait(attempt)

		status, body, err := c.post(ctx, endpoint, acc, req)
		if err != nil {
			lastErr = err
			c.record(ctx, AuditEntry{
				SOAPAction:   req.SOAPAction,
				RequestBody:  req.Body,
				StatusCode:   AuditStatusConnFailed,
				ResponseBody: err.Error(),
				Comment:      comment,
			})
			log.Warn().Str("action", req.SOAPAction).Int("attempt", attempt+1).Err(err).
				Msg("vetis: connection attempt failed")
			continue
		}

		c.record(ctx, AuditEntry{
			SOAPAction:   req.SOAPAction,
			RequestBody:  req.Body,
			StatusCode:   status,
			ResponseBody: string(body),
			Comment:      comment,
		})

		if status < 200 || status > 299 {
			return nil, &ProtocolError{
				Action: req.SOAPAction,
				Status: fmt.Sprintf("HTTP %d", status),
			}
		}
		return &Response{StatusCode: status, Body: body}, nil
	}

	return nil, &TransportError{
		Action:   req.SOAPAction,
		Endpoint: endpoint,
		Attempts: c.sendPolicy.Attempts(),
		Err:      lastErr,
	}
}

func (c *Client) post(ctx context.Context, endpoint string, acc Account, req Request) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(req.Body))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", req.SOAPAction)
	httpReq.SetBasicAuth(acc.Login, acc.Password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) record(ctx context.Context, entry AuditEntry) {
	if c.audit != nil {
		c.audit.Record(ctx, entry)
	}
}

func environmentName(productive bool) string {
	if productive {
		return "productive"
	}
	return "test"
}
