package skype

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 4 << 20

// Headers net/http computes itself. Copying them from the captured browser
// request would corrupt the outgoing one.
var transportManaged = map[string]bool{
	"content-length":  true,
	"accept-encoding": true,
	"host":            true,
	"connection":      true,
}

// response is the status and body of a completed request.
type response struct {
	StatusCode int
	Body       []byte
}

func (r response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// doRequest posts body as JSON with the given header set. A nil body sends
// an empty request. Only transport failures are returned as errors; the
// caller decides what a non-2xx status means.
func doRequest(ctx context.Context, client *http.Client, requestURL string, headers map[string]string, body any) (response, error) {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("skype: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bodyReader)
	if err != nil {
		return response{}, fmt.Errorf("skype: failed to create request: %w", err)
	}

	for name, value := range headers {
		if transportManaged[strings.ToLower(name)] {
			continue
		}
		request.Header.Set(name, value)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(request)
	if err != nil {
		return response{}, fmt.Errorf("skype: request to %s failed: %w", requestURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("skype: failed to read response from %s: %w", requestURL, err)
	}
	return response{StatusCode: resp.StatusCode, Body: data}, nil
}
