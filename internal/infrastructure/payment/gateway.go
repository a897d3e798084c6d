package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

// HTTPGateway инициирует платежи через JSON API внешнего провайдера.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	returnURL  string
	httpClient *http.Client
}

// NewHTTPGateway создаёт клиента шлюза. Пустой apiKey допустим только для локального стенда.
func NewHTTPGateway(baseURL, apiKey, returnURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		returnURL:  returnURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createPaymentRequest struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	PayerID     string `json:"payer_id"`
	PayeeID     string `json:"payee_id"`
	Description string `json:"description"`
	ReturnURL   string `json:"return_url,omitempty"`
}

type createPaymentResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

func (g *HTTPGateway) InitiatePayment(ctx context.Context, req project.PaymentRequest) (*project.PaymentSession, error) {
	if g.baseURL == "" {
		return nil, fmt.Errorf("payment: baseURL не задан")
	}

	body, err := json.Marshal(createPaymentRequest{
		Reference:   req.PaymentID.String(),
		AmountCents: req.Amount.Cents(),
		Currency:    req.Amount.Currency,
		PayerID:     req.PayerID.String(),
		PayeeID:     req.PayeeID.String(),
		Description: "Оплата проекта " + req.ProjectID.String(),
		ReturnURL:   g.returnURL,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Idempotency-Key", req.PaymentID.String())
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment: запрос к шлюзу: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("payment: код ответа %d: %v", resp.StatusCode, errorBody)
	}

	var out createPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("payment: некорректный ответ шлюза: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("payment: шлюз не вернул идентификатор платежа")
	}

	return &project.PaymentSession{ExternalID: out.ID, RedirectURL: out.RedirectURL}, nil
}

// SandboxGateway выдаёт сессии без обращения к сети. Используется в локальном
// режиме и в тестах; платёж подтверждается вручную через колбэк.
type SandboxGateway struct {
	BaseURL string
}

func (g SandboxGateway) InitiatePayment(_ context.Context, req project.PaymentRequest) (*project.PaymentSession, error) {
	externalID := "sbx_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	base := g.BaseURL
	if base == "" {
		base = "http://localhost:8080/sandbox/pay"
	}
	return &project.PaymentSession{
		ExternalID:  externalID,
		RedirectURL: fmt.Sprintf("%s/%s?payment=%s", strings.TrimSuffix(base, "/"), externalID, req.PaymentID),
	}, nil
}
