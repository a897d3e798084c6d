package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/dto"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

type ProjectHandler struct {
	coordinator   *project.Coordinator
	createUC      *project.CreateProjectUseCase
	getUC         *project.GetProjectUseCase
	archiveNoteUC *project.AppendArchiveNoteUseCase
}

func NewProjectHandler(
	coordinator *project.Coordinator,
	createUC *project.CreateProjectUseCase,
	getUC *project.GetProjectUseCase,
	archiveNoteUC *project.AppendArchiveNoteUseCase,
) *ProjectHandler {
	return &ProjectHandler{
		coordinator:   coordinator,
		createUC:      createUC,
		getUC:         getUC,
		archiveNoteUC: archiveNoteUC,
	}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateProjectTitle(req.Title); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateBudget(req.Budget); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.createUC.Execute(c.Request.Context(), actor, project.CreateProjectInput{
		Title:    req.Title,
		Budget:   req.Budget,
		Currency: req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToProjectResponse(p))
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := h.getUC.Execute(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProjectResponse(p))
}

// RequestTransition обслуживает POST /projects/:id/transitions.
func (h *ProjectHandler) RequestTransition(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	// неизвестный статус не отсекается здесь: координатор ответит NOT_FOUND и запишет попытку
	target := valueobject.ProjectStatus(req.TargetStatus)
	payload, err := lifecycle.DecodePayload(target, req.Payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.coordinator.RequestTransition(c.Request.Context(), project.Request{
		ProjectID: projectID,
		Target:    target,
		Actor:     actor,
		Payload:   payload,
	})
	if err != nil {
		h.respondTransitionError(c, projectID, actor, err)
		return
	}

	response.Success(c, dto.ToTransitionResponse(res))
}

func (h *ProjectHandler) OpenDispute(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateDispute(req.Title, req.Description); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	respondentID, err := uuid.Parse(req.RespondentID)
	if err != nil {
		response.BadRequest(c, "некорректный respondent_id")
		return
	}

	res, err := h.coordinator.OpenDispute(c.Request.Context(), projectID, actor, lifecycle.DisputePayload{
		Type:         valueobject.DisputeType(req.Type),
		Title:        req.Title,
		Description:  req.Description,
		RespondentID: respondentID,
	})
	if err != nil {
		h.respondTransitionError(c, projectID, actor, err)
		return
	}

	response.Created(c, dto.ToTransitionResponse(res))
}

func (h *ProjectHandler) History(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	records, err := h.coordinator.History(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransitionRecordResponses(records))
}

func (h *ProjectHandler) AvailableActions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := h.getUC.Execute(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	actions, err := h.coordinator.AvailableActions(c.Request.Context(), projectID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToActionsResponse(p.Status, actions))
}

func (h *ProjectHandler) AppendArchiveNote(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.ArchiveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateArchiveNote(req.Note); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rec, err := h.archiveNoteUC.Execute(c.Request.Context(), projectID, actor, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToArchiveResponse(rec))
}

// respondTransitionError на конфликт дополняет ответ актуальным списком действий.
func (h *ProjectHandler) respondTransitionError(c *gin.Context, projectID uuid.UUID, actor entity.Actor, err error) {
	if !apperror.IsConflict(err) {
		response.Error(c, err)
		return
	}

	actions, aErr := h.coordinator.AvailableActions(c.Request.Context(), projectID, actor)
	if aErr != nil {
		logger.WithProject(projectID).WithError(aErr).Warn("не удалось получить доступные действия после конфликта")
	}
	response.ErrorWithActions(c, err, actions)
}
