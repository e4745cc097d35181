package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const maxBody = 1 << 20

var ErrBreakerOpen = errors.New("upstream breaker open")

// Response is what came back from a POST. Non-2xx statuses are not errors.
type Response struct {
	StatusCode int
	Body       string
}

// Upstream posts JSON documents to a single endpoint.
type Upstream struct {
	name    string
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

type Option func(*Upstream)

// WithBreaker trips after `failures` consecutive failed calls and stays open for openFor.
func WithBreaker(failures int, openFor time.Duration, onChange func(name string, from, to gobreaker.State)) Option {
	if failures < 1 {
		failures = 1
	}
	return func(u *Upstream) {
		u.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    u.name,
			Timeout: openFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(failures)
			},
			OnStateChange: onChange,
		})
	}
}

// WithHTTPClient replaces the default client; the timeout argument of New is then ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Upstream) { u.client = c }
}

func New(name, url string, timeout time.Duration, opts ...Option) *Upstream {
	u := &Upstream{
		name:   name,
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Upstream) Name() string { return u.name }
func (u *Upstream) URL() string  { return u.url }

// BreakerState returns "disabled" when no breaker is configured.
func (u *Upstream) BreakerState() string {
	if u.breaker == nil {
		return "disabled"
	}
	return u.breaker.State().String()
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.code) }

// PostJSON sends payload with JSON content-type and accept headers.
// A transport failure or an open breaker is returned as error; any HTTP status is a Response.
func (u *Upstream) PostJSON(ctx context.Context, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("%s encode: %w", u.name, err)
	}
	if u.breaker == nil {
		return u.post(ctx, body)
	}

	out, err := u.breaker.Execute(func() (interface{}, error) {
		resp, err := u.post(ctx, body)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Response{}, fmt.Errorf("%w: %s", ErrBreakerOpen, u.name)
	}
	resp, _ := out.(Response)
	var se *statusError
	if errors.As(err, &se) {
		return resp, nil
	}
	return resp, err
}

func (u *Upstream) post(ctx context.Context, body []byte) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%s request: %w", u.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := u.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s request error: %w", u.name, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return Response{StatusCode: res.StatusCode}, fmt.Errorf("%s read body: %w", u.name, err)
	}
	return Response{StatusCode: res.StatusCode, Body: string(b)}, nil
}
