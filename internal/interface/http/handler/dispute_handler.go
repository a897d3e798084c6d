package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/dto"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/dispute"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

type DisputeHandler struct {
	listUC   *dispute.ListUseCase
	changeUC *dispute.ChangeStatusUseCase
}

func NewDisputeHandler(listUC *dispute.ListUseCase, changeUC *dispute.ChangeStatusUseCase) *DisputeHandler {
	return &DisputeHandler{listUC: listUC, changeUC: changeUC}
}

func (h *DisputeHandler) ListByProject(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	disputes, err := h.listUC.Execute(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponses(disputes))
}

// ChangeStatus обслуживает PATCH /disputes/:id/status. Статус проекта не меняется.
func (h *DisputeHandler) ChangeStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.ChangeDisputeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateResolution(req.Resolution); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	status, err := valueobject.NewDisputeStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.changeUC.Execute(c.Request.Context(), disputeID, actor, status, req.Resolution)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponse(d))
}
