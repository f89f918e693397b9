//go:build unit

package paystack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk_test_do_not_leak"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.PaystackConfig{
		SecretKey: testSecret,
		BaseURL:   srv.URL + "/",
		Timeout:   2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestVerifyTransaction_Success(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"amount": 500000,
				"currency": "NGN",
				"reference": "ref/123",
				"paid_at": "2024-05-01T10:00:00Z",
				"channel": "card"
			}
		}`)
	})

	txn, err := client.VerifyTransaction(context.Background(), "ref/123")
	require.NoError(t, err)

	assert.Equal(t, "/transaction/verify/ref%2F123", gotPath)
	assert.Equal(t, "Bearer "+testSecret, gotAuth)
	assert.True(t, txn.Succeeded())
	assert.Equal(t, int64(500000), txn.AmountMinor)
	assert.Equal(t, "NGN", txn.Currency)
	assert.Equal(t, "card", txn.Channel)
	require.NotNil(t, txn.PaidAt)
	assert.Equal(t, 2024, txn.PaidAt.Year())
}

func TestVerifyTransaction_FailedPaymentIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":true,"message":"ok","data":{"status":"failed","amount":500000,"currency":"NGN"}}`)
	})

	txn, err := client.VerifyTransaction(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, txn.Succeeded())
}

func TestVerifyTransaction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"status":false,"message":"Invalid key"}`,
			wantErr: ErrUnexpectedStatus,
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"status":false,"message":"Transaction reference not found"}`,
			wantErr: ErrUnexpectedStatus,
		},
		{
			name:    "html error page",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: ErrUnexpectedStatus,
		},
		{
			name:    "garbage body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: ErrMalformedBody,
		},
		{
			name:    "status false",
			status:  http.StatusOK,
			body:    `{"status":false,"message":"nope"}`,
			wantErr: ErrRejected,
		},
		{
			name:    "missing data",
			status:  http.StatusOK,
			body:    `{"status":true,"message":"ok"}`,
			wantErr: ErrMalformedBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.VerifyTransaction(context.Background(), "ref-1")
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.wantErr), "got %v", err)
			assert.NotContains(t, err.Error(), testSecret)
		})
	}
}

func TestVerifyTransaction_HonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.VerifyTransaction(ctx, "ref-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NotContains(t, err.Error(), testSecret)
}
