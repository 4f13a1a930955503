package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const directionsPath = "/maps/api/directions/json"

// Body statuses that the Directions API returns with HTTP 200 but that
// usually clear up on a later attempt.
var transientStatuses = map[string]bool{
	"OVER_QUERY_LIMIT": true,
	"UNKNOWN_ERROR":    true,
}

// statusCodeError is a reply with an HTTP status of 400 or above.
type statusCodeError struct {
	Code int
	Body string
}

func (e *statusCodeError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// apiStatusError is a decoded reply whose body status is not OK.
type apiStatusError struct {
	Status  string
	Message string
}

func (e *apiStatusError) Error() string {
	if e.Message == "" {
		return "status " + e.Status
	}
	return fmt.Sprintf("status %s: %s", e.Status, e.Message)
}

// retryPolicy decides which Directions failures are repeated and how long to
// wait between attempts. The wait doubles after every attempt.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 3, backoff: 200 * time.Millisecond}
}

// retryable reports whether err is worth another attempt. Nothing is retried
// once ctx has ended.
func (p retryPolicy) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var sc *statusCodeError
	if errors.As(err, &sc) {
		return sc.Code == http.StatusTooManyRequests || sc.Code >= http.StatusInternalServerError
	}

	var se *apiStatusError
	if errors.As(err, &se) {
		return transientStatuses[se.Status]
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func (p retryPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.backoff << (attempt - 1))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetchDirections runs one Directions query under the provider's retry
// policy. A nil error means the body status was OK.
func (g *GoogleDirectionsProvider) fetchDirections(ctx context.Context, query url.Values) (directionsResponse, error) {
	policy := g.retry
	if policy.attempts < 1 {
		policy.attempts = 1
	}

	for attempt := 1; ; attempt++ {
		dr, err := g.getDirections(ctx, query)
		if err == nil {
			return dr, nil
		}
		if attempt == policy.attempts || !policy.retryable(ctx, err) {
			return directionsResponse{}, err
		}
		if err := policy.wait(ctx, attempt); err != nil {
			return directionsResponse{}, err
		}
	}
}

func (g *GoogleDirectionsProvider) getDirections(ctx context.Context, query url.Values) (directionsResponse, error) {
	var dr directionsResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+directionsPath+"?"+query.Encode(), nil)
	if err != nil {
		return dr, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.session.Do(req)
	if err != nil {
		return dr, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return dr, &statusCodeError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return dr, fmt.Errorf("decode directions response: %w", err)
	}
	if dr.Status != "OK" {
		return dr, &apiStatusError{Status: dr.Status, Message: dr.ErrorMessage}
	}

	return dr, nil
}
