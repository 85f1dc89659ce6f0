package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/googleapis/gax-go/v2"
)

const (
	userAgent = "voxflow-elevenlabs-go/1.0"

	// requestIDHeader carries the client-generated request id so failures
	// can be correlated with debug logs.
	requestIDHeader = "X-Request-Id"

	// maxErrorBody bounds how much of an error response body is read.
	maxErrorBody = 1 << 20
)

// httpClient handles HTTP communication with the ElevenLabs API.
type httpClient struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	backoffInitial time.Duration
	backoffMax     time.Duration
	chunkSize      int
}

func newHTTPClient(cfg *clientConfig) *httpClient {
	return &httpClient{
		client:         cfg.httpClient,
		baseURL:        cfg.baseURL,
		apiKey:         cfg.apiKey,
		maxRetries:     cfg.maxRetries,
		backoffInitial: cfg.backoffInitial,
		backoffMax:     cfg.backoffMax,
		chunkSize:      cfg.chunkSize,
	}
}

// retryObserver receives transport attempt signals. Installed via
// context by the job layer so the per-job state machine can record
// Retrying transitions without owning the retry loop. AttemptStarted
// fires before every attempt, with attempt 0 marking a fresh request;
// RetryScheduled fires when a failed attempt is about to back off.
type retryObserver interface {
	AttemptStarted(attempt int)
	RetryScheduled(attempt int, err error, pause time.Duration)
}

type retryObserverKey struct{}

func withRetryObserver(ctx context.Context, obs retryObserver) context.Context {
	return context.WithValue(ctx, retryObserverKey{}, obs)
}

func retryObserverFrom(ctx context.Context) retryObserver {
	obs, _ := ctx.Value(retryObserverKey{}).(retryObserver)
	return obs
}

// retry runs fn until success, a terminal error, or the attempt ceiling.
//
// Rate limits and network failures back off exponentially; a provider
// retry-after hint overrides the computed pause. Server errors are
// retried at most once regardless of the ceiling. Non-retryable errors
// surface immediately.
func (h *httpClient) retry(ctx context.Context, fn func() error) error {
	bo := gax.Backoff{
		Initial:    h.backoffInitial,
		Max:        h.backoffMax,
		Multiplier: 2,
	}

	obs := retryObserverFrom(ctx)
	var lastErr error
	serverRetried := false

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			pause := bo.Pause()
			if apiErr, ok := AsError(lastErr); ok && apiErr.RetryAfter > 0 {
				pause = apiErr.RetryAfter
			}
			if obs != nil {
				obs.RetryScheduled(attempt, lastErr, pause)
			}
			slog.Debug("elevenlabs: retrying request",
				"attempt", attempt,
				"pause", pause,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
		if obs != nil {
			obs.AttemptStarted(attempt)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		apiErr, ok := AsError(err)
		if !ok || !apiErr.Retryable() {
			return err
		}
		if apiErr.Kind == KindServer {
			if serverRetried {
				return err
			}
			serverRetried = true
		}
	}

	return lastErr
}

// request makes a JSON request with retry support, decoding the
// response into result when non-nil.
func (h *httpClient) request(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	return h.retry(ctx, func() error {
		return h.doJSON(ctx, method, path, query, payload, result)
	})
}

// requestAudio makes a request whose success body is raw audio,
// buffered fully. Use stream for unbounded payloads.
func (h *httpClient) requestAudio(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var audio []byte
	err := h.retry(ctx, func() error {
		resp, err := h.do(ctx, method, path, query, jsonContentType(payload), jsonBody(payload))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return h.responseError(resp)
		}
		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Kind: KindNetwork, Message: "read audio body: " + err.Error(), Err: err}
		}
		return nil
	})
	return audio, err
}

// jsonBody wraps a marshaled payload, nil for body-less requests.
func jsonBody(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

func jsonContentType(payload []byte) string {
	if payload == nil {
		return ""
	}
	return "application/json"
}

// stream issues the request and hands the raw response body to the
// caller without buffering. Retries apply only until the body starts
// flowing; the caller must close the reader.
func (h *httpClient) stream(ctx context.Context, method, path string, query url.Values, body any) (io.ReadCloser, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var rc io.ReadCloser
	err := h.retry(ctx, func() error {
		resp, err := h.do(ctx, method, path, query, jsonContentType(payload), jsonBody(payload))
		if err != nil {
			return err
		}
		if resp.StatusCode/100 != 2 {
			defer resp.Body.Close()
			return h.responseError(resp)
		}
		rc = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// formPart is one file part of a multipart upload. Data is held in
// memory so the form can be rebuilt when an attempt is retried.
type formPart struct {
	field    string
	filename string
	data     []byte
}

// upload posts a multipart form with retry support, decoding the JSON
// response into result when non-nil.
func (h *httpClient) upload(ctx context.Context, path string, query url.Values, fields map[string]string, parts []formPart, result any) error {
	return h.retry(ctx, func() error {
		resp, err := h.uploadDo(ctx, path, query, fields, parts)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return h.responseError(resp)
		}
		if result == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	})
}

// uploadAudio posts a multipart form whose success body is raw audio.
func (h *httpClient) uploadAudio(ctx context.Context, path string, query url.Values, fields map[string]string, parts []formPart) ([]byte, error) {
	var audio []byte
	err := h.retry(ctx, func() error {
		resp, err := h.uploadDo(ctx, path, query, fields, parts)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return h.responseError(resp)
		}
		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Kind: KindNetwork, Message: "read audio body: " + err.Error(), Err: err}
		}
		return nil
	})
	return audio, err
}

// uploadDo performs a single multipart POST, streaming the form body
// through an io.Pipe so file parts are never double-buffered.
func (h *httpClient) uploadDo(ctx context.Context, path string, query url.Values, fields map[string]string, parts []formPart) (*http.Response, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()

		for key, value := range fields {
			if err := writer.WriteField(key, value); err != nil {
				errCh <- fmt.Errorf("write field %s: %w", key, err)
				return
			}
		}
		for _, p := range parts {
			part, err := writer.CreateFormFile(p.field, p.filename)
			if err != nil {
				errCh <- fmt.Errorf("create form file: %w", err)
				return
			}
			if _, err := part.Write(p.data); err != nil {
				errCh <- fmt.Errorf("write form file: %w", err)
				return
			}
		}
		if err := writer.Close(); err != nil {
			errCh <- fmt.Errorf("close writer: %w", err)
			return
		}
		errCh <- nil
	}()

	resp, err := h.do(ctx, http.MethodPost, path, query, writer.FormDataContentType(), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}

	if writeErr := <-errCh; writeErr != nil {
		resp.Body.Close()
		return nil, writeErr
	}
	return resp, nil
}

// do builds and sends one HTTP request. Transport failures map to
// KindNetwork; HTTP status handling is left to the caller.
func (h *httpClient) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*http.Response, error) {
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	id := uuid.NewString()
	req.Header.Set("xi-api-key", h.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, id)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	slog.Debug("elevenlabs: request", "method", method, "path", path, "request_id", id)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &Error{
			Kind:      KindNetwork,
			Message:   err.Error(),
			RequestID: id,
			Err:       err,
		}
	}
	return resp, nil
}

// apiErrorDetail is the provider's error body. The detail member is
// either an object with status and message or a bare string.
type apiErrorDetail struct {
	Detail json.RawMessage `json:"detail"`
}

// responseError maps a non-2xx response to a typed *Error. The body is
// consumed but the caller still owns closing it.
func (h *httpClient) responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiStatus, message := parseErrorDetail(body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	e := &Error{
		Kind:       kindForStatus(resp.StatusCode, apiStatus),
		Message:    message,
		HTTPStatus: resp.StatusCode,
		APIStatus:  apiStatus,
		RequestID:  resp.Request.Header.Get(requestIDHeader),
	}
	if e.Kind == KindRateLimited {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return e
}

// parseErrorDetail extracts (status, message) from an error body.
func parseErrorDetail(body []byte) (string, string) {
	var outer apiErrorDetail
	if err := json.Unmarshal(body, &outer); err != nil || len(outer.Detail) == 0 {
		return "", ""
	}

	var detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(outer.Detail, &detail); err == nil && (detail.Status != "" || detail.Message != "") {
		return detail.Status, detail.Message
	}

	var plain string
	if err := json.Unmarshal(outer.Detail, &plain); err == nil {
		return "", plain
	}
	return "", ""
}

// kindForStatus maps an HTTP status (refined by the provider's status
// string when present) to an ErrorKind.
func kindForStatus(status int, apiStatus string) ErrorKind {
	switch apiStatus {
	case "voice_not_found", "voice_does_not_exist":
		return KindVoiceNotFound
	case "invalid_api_key":
		return KindUnauthorized
	}

	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// parseRetryAfter reads a Retry-After header value: delta seconds or an
// HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// doJSON performs a single JSON request.
func (h *httpClient) doJSON(ctx context.Context, method, path string, query url.Values, payload []byte, result any) error {
	resp, err := h.do(ctx, method, path, query, jsonContentType(payload), jsonBody(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return h.responseError(resp)
	}
	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
