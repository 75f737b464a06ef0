package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
)

type notifyRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// HTTPNotifier posts each message to a remote notification endpoint.
type HTTPNotifier struct {
	url        string
	httpClient *http.Client
}

func NewHTTPNotifier(url string, httpClient *http.Client) *HTTPNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPNotifier{url: strings.TrimSpace(url), httpClient: httpClient}
}

func (n *HTTPNotifier) Notify(ctx context.Context, accountID string, message string) error {
	body, err := json.Marshal(notifyRequest{UserID: accountID, Message: message})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification to %q: %w", accountID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification service responded with status %d", resp.StatusCode)
	}
	return nil
}

var _ domain.Notifier = (*HTTPNotifier)(nil)
