package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "rental-chatbot/internal/common/errors"
	"rental-chatbot/internal/common/logger"
)

// HTTPConfig configures the client of an external NLU service.
type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// HTTPClassifier calls a Rasa compatible parse endpoint: POST {base}/model/parse {"text": ...}.
type HTTPClassifier struct {
	config *HTTPConfig
	client *http.Client
	logger logger.Logger
}

func NewHTTPClassifier(config *HTTPConfig, log logger.Logger) *HTTPClassifier {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.WithFields(map[string]interface{}{"classifier": "http"}),
	}
}

// errClientStatus marks 4xx responses, which are not retried.
var errClientStatus = errors.New("client error status")

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrClassifierUnavailable, err)
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + "/model/parse"

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", apperrors.ErrClassifierTimeout, ctx.Err())
			}
		}

		res, err := c.do(ctx, url, body)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var netErr net.Error
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrClassifierTimeout, err)
		}
		if errors.Is(err, errClientStatus) {
			break
		}
		c.logger.Warn("classifier request failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	return nil, fmt.Errorf("%w: %v", apperrors.ErrClassifierUnavailable, lastErr)
}

func (c *HTTPClassifier) do(ctx context.Context, url string, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %d", errClientStatus, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode parse response: %v", errClientStatus, err)
	}
	if res.Intent.Name == "" {
		return nil, fmt.Errorf("%w: parse response has no intent", errClientStatus)
	}
	return &res, nil
}
