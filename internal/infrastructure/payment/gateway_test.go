package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

func testRequest() project.PaymentRequest {
	return project.PaymentRequest{
		PaymentID: uuid.New(),
		ProjectID: uuid.New(),
		Amount:    valueobject.Money{Amount: 1250.5, Currency: "USD"},
		PayerID:   uuid.New(),
		PayeeID:   uuid.New(),
	}
}

func TestHTTPGateway_InitiatePayment(t *testing.T) {
	req := testRequest()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, req.PaymentID.String(), r.Header.Get("Idempotency-Key"))

		var body createPaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(125050), body.AmountCents)
		assert.Equal(t, "USD", body.Currency)
		assert.Equal(t, req.PaymentID.String(), body.Reference)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pay_123","redirect_url":"https://pay.example/pay_123"}`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL+"/", "secret-key", "", time.Second)
	session, err := gw.InitiatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "pay_123", session.ExternalID)
	assert.Equal(t, "https://pay.example/pay_123", session.RedirectURL)
}

func TestHTTPGateway_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "", "", time.Second).InitiatePayment(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPGateway_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "", "", time.Second).InitiatePayment(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestSandboxGateway(t *testing.T) {
	req := testRequest()
	session, err := SandboxGateway{}.InitiatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, session.ExternalID, "sbx_")
	assert.Contains(t, session.RedirectURL, req.PaymentID.String())
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"external_id":"pay_1","status":"completed"}`)
	sig := Sign("whsec", body)

	assert.True(t, VerifySignature("whsec", body, sig))
	assert.True(t, VerifySignature("whsec", body, "sha256="+sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("whsec", []byte(`{}`), sig))
	assert.False(t, VerifySignature("whsec", body, "не-hex"))
	assert.False(t, VerifySignature("", body, sig))
}
