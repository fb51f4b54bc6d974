package telemetry

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
)

// ErrStatus wraps non-2xx responses from the ingestion endpoint.
var ErrStatus = errors.New("unexpected response status")

// SensorDataPath is the ingestion route for telemetry rows.
const SensorDataPath = "/sensor-data"

// HTTPTransport posts records to the ingestion service.
type HTTPTransport struct {
	baseURL    string
	alarmField string
	client     *http.Client
}

// NewHTTPTransport returns a transport for baseURL. The client timeout is a
// backstop; callers also bound each Send with a context deadline.
func NewHTTPTransport(baseURL, alarmField string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		alarmField: alarmField,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Send posts the record. Any transport error or non-2xx status is an error.
func (t *HTTPTransport) Send(ctx context.Context, rec Record) error {
	body, err := FormatPayload(rec, t.alarmField)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+SensorDataPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", SensorDataPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			return fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, er.Error)
		}
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return nil
}
