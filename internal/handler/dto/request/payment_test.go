//go:build unit

package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVerifyPayment(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    VerifyPaymentRequest
		wantErr bool
	}{
		{
			name: "callable envelope",
			body: `{"data":{"reference":"ref-1","courseId":"c1"}}`,
			want: VerifyPaymentRequest{Reference: "ref-1", CourseID: "c1"},
		},
		{
			name: "bare object",
			body: `{"reference":"ref-1","courseId":"c1"}`,
			want: VerifyPaymentRequest{Reference: "ref-1", CourseID: "c1"},
		},
		{
			name: "envelope with missing field",
			body: `{"data":{"reference":"ref-1"}}`,
			want: VerifyPaymentRequest{Reference: "ref-1"},
		},
		{
			name: "empty object",
			body: `{}`,
			want: VerifyPaymentRequest{},
		},
		{
			name:    "not json",
			body:    `reference=ref-1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeVerifyPayment([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
