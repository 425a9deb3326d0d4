package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Spok95/eduhere-client/internal/apierr"
)

// postJSON sends an unauthenticated JSON POST and returns status and body.
// Transport failures come back as *apierr.NetworkError.
func postJSON(ctx context.Context, hc *http.Client, url, bearer string, in any) (int, []byte, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, &apierr.NetworkError{Op: "POST " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, &apierr.NetworkError{Op: "POST " + req.URL.Path, Err: err}
	}
	return resp.StatusCode, body, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }
