package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

const maxErrorBody = 4 << 10

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (o *ORSClient) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (o *ORSClient) do(req *http.Request) (*http.Response, error) {
	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context cancellation.
// Directions calls do not use it; their retries belong to the search loop.
func (o *ORSClient) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := o.retryBackoff

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := o.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func isRetryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify maps a transport or status failure to the provider error taxonomy.
// Context cancellation is returned unchanged.
func classify(ctx context.Context, profile domain.Profile, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var he *httpStatusError
	if !errors.As(err, &he) {
		return &domain.OracleError{Kind: domain.OracleTransient, Profile: profile, Err: err}
	}

	oe := &domain.OracleError{Profile: profile, StatusCode: he.Code, Message: he.Body}
	switch {
	case he.Code == http.StatusBadRequest:
		oe.Kind = domain.OracleInvalidRequest
	case he.Code == http.StatusNotFound && strings.Contains(strings.ToLower(he.Body), "profile"):
		oe.Kind = domain.OracleProfileUnavailable
	case he.Code == http.StatusNotFound:
		oe.Kind = domain.OracleUnroutable
	case he.Code == http.StatusUnauthorized || he.Code == http.StatusForbidden:
		oe.Kind = domain.OracleAuth
	case he.Code == http.StatusTooManyRequests || he.Code >= 500:
		oe.Kind = domain.OracleTransient
	default:
		oe.Kind = domain.OracleInvalidRequest
	}
	return oe
}
