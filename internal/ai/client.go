package ai

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "time"

    "github.com/edustack/ai-resilience-go-backend/internal/models"
)

// ProviderConfig holds connection details for one tutoring LLM provider.
type ProviderConfig struct {
    Name  string
    URL   string
    Model string
}

type GenerateRequest struct {
    Model  string `json:"model"`
    Prompt string `json:"prompt"`
}

type GenerateResponse struct {
    Response string `json:"response"`
}

// ErrInvalidResponse marks a reply that came back 200 but could not be used.
var ErrInvalidResponse = errors.New("undecodable provider response")

type statusError struct {
    code int
    body string
}

func (e *statusError) Error() string {
    return fmt.Sprintf("provider error %d: %s", e.code, e.body)
}

// Client is a thin HTTP client for one provider's generate endpoint.
type Client struct {
    cfg  ProviderConfig
    http *http.Client
}

func NewClient(cfg ProviderConfig, timeout time.Duration) *Client {
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Name() string { return c.cfg.Name }

// Ask sends the prompt and returns the provider's text answer.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
    url := fmt.Sprintf("%s/api/generate", c.cfg.URL)
    payload := GenerateRequest{
        Model:  c.cfg.Model,
        Prompt: prompt,
    }

    body, err := json.Marshal(payload)
    if err != nil {
        return "", err
    }

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
    if err != nil {
        return "", err
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(req)
    if err != nil {
        return "", err
    }
    defer resp.Body.Close()

    if resp.StatusCode != 200 {
        b, _ := io.ReadAll(resp.Body)
        return "", &statusError{code: resp.StatusCode, body: string(b)}
    }

    var result GenerateResponse
    if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
        return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
    }
    if result.Response == "" {
        return "", fmt.Errorf("%w: empty body", ErrInvalidResponse)
    }

    return result.Response, nil
}

// Classify maps a provider call error onto a fallback trigger.
func Classify(err error) models.FallbackTrigger {
    if err == nil {
        return models.TriggerUnknown
    }
    var netErr net.Error
    if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
        return models.TriggerTimeout
    }
    var se *statusError
    if errors.As(err, &se) {
        if se.code == http.StatusTooManyRequests {
            return models.TriggerRateLimited
        }
        if se.code >= 500 {
            return models.TriggerProviderError
        }
        return models.TriggerUnknown
    }
    if errors.Is(err, ErrInvalidResponse) {
        return models.TriggerInvalidResponse
    }
    return models.TriggerUnknown
}
