package paystack

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

	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/usecase/commands"
)

const maxBodyBytes = 1 << 20

var (
	ErrUnexpectedStatus = errs.New("unexpected processor response status")
	ErrMalformedBody    = errs.New("malformed processor response")
	ErrRejected         = errs.New("processor rejected verification request")
)

type verifyResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    *verifyData `json:"data"`
}

type verifyData struct {
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Reference string     `json:"reference"`
	PaidAt    *time.Time `json:"paid_at"`
	Channel   string     `json:"channel"`
}

// Client verifies transactions against the Paystack REST API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.PaystackConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

var _ commands.PaymentProcessor = (*Client)(nil)

// VerifyTransaction calls GET /transaction/verify/{reference}. Errors never
// include request headers, so the secret key cannot leak through them.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*commands.Transaction, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build verification request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, "verification request failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close processor response body", "error", cerr.Error())
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Wrap(err, "failed to read processor response")
	}

	var decoded verifyResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("processor returned HTTP %d", resp.StatusCode)
		if decodeErr == nil && decoded.Message != "" {
			msg += ": " + decoded.Message
		}
		return nil, errs.Wrap(ErrUnexpectedStatus, msg)
	}
	if decodeErr != nil {
		return nil, errs.Mark(errs.Wrap(decodeErr, "failed to decode processor response"), ErrMalformedBody)
	}
	if !decoded.Status {
		return nil, errs.Wrap(ErrRejected, decoded.Message)
	}
	if decoded.Data == nil {
		return nil, errs.Wrap(ErrMalformedBody, "response has no data")
	}

	c.logger.Debug("processor verification completed",
		"reference", reference,
		"status", decoded.Data.Status,
		"channel", decoded.Data.Channel)

	return &commands.Transaction{
		Reference:   decoded.Data.Reference,
		Status:      decoded.Data.Status,
		AmountMinor: decoded.Data.Amount,
		Currency:    decoded.Data.Currency,
		PaidAt:      decoded.Data.PaidAt,
		Channel:     decoded.Data.Channel,
	}, nil
}
