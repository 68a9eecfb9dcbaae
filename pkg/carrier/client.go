package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medlinehq/go-frontdesk/internal/httpc"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Messenger sends outbound text messages through the carrier.
type Messenger interface {
	SendMessage(ctx context.Context, to, body string) error
}

// CallLookup resolves call metadata from the carrier.
type CallLookup interface {
	LookupCall(ctx context.Context, callSid string) (from string, err error)
}

// Client talks to the carrier REST API with basic auth.
type Client struct {
	accountSid string
	authToken  string
	fromNumber string
	baseURL    string
	client     *http.Client
	logger     *slog.Logger
}

// ClientOption configures the REST client.
type ClientOption func(*Client)

// WithClientBaseURL overrides the API base URL, mainly for tests.
func WithClientBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithClientTimeout sets the HTTP timeout.
func WithClientTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithClientLogger sets the structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a carrier REST client. fromNumber is the clinic's
// outbound sender address (for WhatsApp, the "whatsapp:+E164" form).
func NewClient(accountSid, authToken, fromNumber string, opts ...ClientOption) (*Client, error) {
	if accountSid == "" || authToken == "" {
		return nil, ErrNoCredentials
	}

	c := &Client{
		accountSid: accountSid,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    twilioBaseURL,
		client:     httpc.NewClient(10 * time.Second),
		logger:     slog.Default().With("component", "carrier.client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendMessage sends an outbound message from the configured sender.
func (c *Client) SendMessage(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSid)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.accountSid, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.parseError(resp)
	}

	c.logger.Debug("message sent", "to", to, "chars", len(body))
	return nil
}

// LookupCall fetches the call record and returns the caller address.
func (c *Client) LookupCall(ctx context.Context, callSid string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", c.baseURL, c.accountSid, callSid)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.accountSid, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return "", ErrCallNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	var record struct {
		From string `json:"from"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("decode call record: %w", err)
	}
	return record.From, nil
}

// parseError reads and parses an error response.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Message string `json:"message"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		message = errResp.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// Verify Client implements both carrier interfaces at compile time.
var (
	_ Messenger  = (*Client)(nil)
	_ CallLookup = (*Client)(nil)
)
