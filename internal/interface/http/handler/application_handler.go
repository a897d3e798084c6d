package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/interface/http/dto"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/application"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

type ApplicationHandler struct {
	submitUC   *application.SubmitUseCase
	withdrawUC *application.WithdrawUseCase
	listUC     *application.ListUseCase
}

func NewApplicationHandler(
	submitUC *application.SubmitUseCase,
	withdrawUC *application.WithdrawUseCase,
	listUC *application.ListUseCase,
) *ApplicationHandler {
	return &ApplicationHandler{submitUC: submitUC, withdrawUC: withdrawUC, listUC: listUC}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateCoverLetter(req.CoverLetter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateProposedAmount(req.ProposedAmount); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.submitUC.Execute(c.Request.Context(), projectID, actor, application.SubmitInput{
		CoverLetter:    req.CoverLetter,
		ProposedAmount: req.ProposedAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToApplicationResponse(app))
}

func (h *ApplicationHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	apps, err := h.listUC.Execute(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToApplicationResponses(apps))
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	applicationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.withdrawUC.Execute(c.Request.Context(), applicationID, actor); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
