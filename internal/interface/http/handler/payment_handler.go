package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/dto"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	paymentuc "github.com/ignatzorin/marketplace-backend/internal/usecase/payment"
)

const maxCallbackBody = 64 * 1024

type PaymentHandler struct {
	service       *paymentuc.Service
	webhookSecret string
}

func NewPaymentHandler(service *paymentuc.Service, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{service: service, webhookSecret: webhookSecret}
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.InitiatePayment(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToPaymentResponse(p))
}

// Callback принимает вебхук шлюза. Подпись проверяется по сырому телу запроса.
func (h *PaymentHandler) Callback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		response.BadRequest(c, "не удалось прочитать тело запроса")
		return
	}

	if !payment.VerifySignature(h.webhookSecret, body, c.GetHeader(payment.SignatureHeader)) {
		logger.Log.WithField("ip", c.ClientIP()).Warn("колбэк платежа с неверной подписью")
		response.Unauthorized(c, "неверная подпись")
		return
	}

	var req dto.PaymentCallbackRequest
	if err := json.Unmarshal(body, &req); err != nil || req.ExternalID == "" {
		response.BadRequest(c, "некорректные данные колбэка")
		return
	}
	res, err := h.service.HandleCallback(c.Request.Context(), paymentuc.Callback{
		ExternalID: req.ExternalID,
		Status:     valueobject.PaymentStatus(req.Status),
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := dto.PaymentCallbackResponse{
		Payment:   dto.ToPaymentResponse(res.Payment),
		Duplicate: res.Duplicate,
	}
	if res.Transition != nil {
		out.ProjectStatus = string(res.Transition.AppliedStatus)
	}
	c.JSON(http.StatusOK, response.Response{Success: true, Data: out})
}
