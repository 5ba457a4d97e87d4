// Package airrapi talks to an ADC-style repository query API.
package airrapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/airrsanity/pkg/metrics"
)

const defaultTimeout = 5 * time.Minute

// Status classifies the outcome of one query.
type Status int

const (
	// StatusOK means the server answered with a 2xx body.
	StatusOK Status = iota
	// StatusExpectedFailure means a query expected to fail got a 400.
	StatusExpectedFailure
	// StatusEmpty means the query produced nothing usable.
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusExpectedFailure:
		return "expected_failure"
	default:
		return "empty"
	}
}

// Response is the result of Execute. JSON is set for StatusOK unless the
// query ran in force mode, in which case only Raw is set.
type Response struct {
	Status Status
	Code   int
	JSON   any
	Raw    []byte
}

// ExecOptions tune one Execute call.
type ExecOptions struct {
	// ExpectPass false turns a 400 into StatusExpectedFailure.
	ExpectPass bool
	// Force skips JSON decoding of the body.
	Force bool
	// Endpoint labels the request in metrics.
	Endpoint string
}

// Client posts JSON queries to the repository.
type Client struct {
	http     *http.Client
	timeout  time.Duration
	headers  map[string]string
	insecure bool
}

// NewClient builds a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: defaultTimeout,
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed repositories
		}
		c.http = &http.Client{Timeout: c.timeout, Transport: transport}
	}
	return c
}

// Execute posts query to url. Transport errors, non-2xx statuses and
// undecodable bodies give StatusEmpty together with an error describing
// what went wrong, so callers can record the failure and move on.
func (c *Client) Execute(ctx context.Context, url string, query any, opts ExecOptions) (Response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, url, query, opts)
	if opts.Endpoint != "" {
		metrics.RecordQueryRequest(opts.Endpoint, resp.Status.String())
		metrics.RecordQueryDuration(opts.Endpoint, float64(time.Since(start).Milliseconds()))
	}
	return resp, err
}

func (c *Client) execute(ctx context.Context, url string, query any, opts ExecOptions) (Response, error) {
	empty := Response{Status: StatusEmpty}

	body, err := encodeQuery(query)
	if err != nil {
		return empty, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return empty, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return empty, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return empty, fmt.Errorf("%w: read body: %w", ErrUnreachable, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if !opts.ExpectPass && res.StatusCode == http.StatusBadRequest {
			return Response{Status: StatusExpectedFailure, Code: res.StatusCode, Raw: raw}, nil
		}
		empty.Code = res.StatusCode
		return empty, fmt.Errorf("%w: %s returned %d", ErrStatus, url, res.StatusCode)
	}

	out := Response{Status: StatusOK, Code: res.StatusCode, Raw: raw}
	if opts.Force {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out.JSON); err != nil {
		empty.Code = res.StatusCode
		empty.Raw = raw
		return empty, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}

// encodeQuery accepts a decoded query, raw JSON bytes or, in force mode, the
// verbatim text of a query file.
func encodeQuery(query any) ([]byte, error) {
	switch q := query.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		return q, nil
	case string:
		return []byte(q), nil
	case json.RawMessage:
		return q, nil
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

// IsTransport reports whether err came from reaching the server rather than
// from what it answered.
func IsTransport(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
