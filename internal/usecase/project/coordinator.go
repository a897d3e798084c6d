package project

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// Request: запрос смены статуса проекта.
type Request struct {
	ProjectID uuid.UUID
	Target    valueobject.ProjectStatus
	Actor     entity.Actor
	Payload   lifecycle.Payload
}

// Result: итог применённого перехода.
type Result struct {
	Project       *entity.Project
	Record        *entity.TransitionRecord
	AppliedStatus valueobject.ProjectStatus
	Dispute       *entity.Dispute
	Payment       *entity.Payment
}

// Coordinator: единственная точка записи статуса проекта. Состояния не хранит,
// безопасен для параллельного использования.
type Coordinator struct {
	tx         repository.Transactor
	projects   repository.ProjectRepository
	payments   repository.PaymentRepository
	disputes   repository.DisputeRepository
	recorder   *Recorder
	dispatcher *Dispatcher
	notifier   Notifier
	now        func() time.Time
}

type Option func(*Coordinator)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

func NewCoordinator(
	tx repository.Transactor,
	projects repository.ProjectRepository,
	payments repository.PaymentRepository,
	disputes repository.DisputeRepository,
	recorder *Recorder,
	dispatcher *Dispatcher,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		tx:         tx,
		projects:   projects,
		payments:   payments,
		disputes:   disputes,
		recorder:   recorder,
		dispatcher: dispatcher,
		notifier:   noopNotifier{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sideEffectError отделяет сбой диспетчера от ошибок записи статуса.
type sideEffectError struct {
	err error
}

func (e *sideEffectError) Error() string { return e.err.Error() }
func (e *sideEffectError) Unwrap() error { return e.err }

// RequestTransition проверяет и применяет переход. Каждый вызов для существующего
// проекта оставляет ровно одну запись в журнале.
func (c *Coordinator) RequestTransition(ctx context.Context, req Request) (*Result, error) {
	payload := req.Payload
	if payload == nil {
		payload = lifecycle.NewPayload(req.Target)
	}

	for attempt := 0; ; attempt++ {
		project, err := c.load(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}

		if project.IsReadOnly() {
			err := apperror.New(apperror.ErrCodePreconditionFailed, "проект в архиве доступен только для чтения")
			c.reject(ctx, project, req.Target, req.Actor, err.Message, payload)
			return nil, err
		}

		facts, err := c.loadFacts(ctx, project.ID)
		if err != nil {
			return nil, err
		}

		decision := lifecycle.Validate(lifecycle.Input{
			Project: project,
			Target:  req.Target,
			Actor:   req.Actor,
			Payload: payload,
			Facts:   facts,
		})
		if !decision.Allowed {
			c.reject(ctx, project, req.Target, req.Actor, decision.Reason, payload)
			return nil, decision.Err()
		}

		change := Change{
			Project: project,
			From:    project.Status,
			To:      req.Target,
			Actor:   req.Actor,
			Payload: payload,
			Facts:   facts,
			At:      c.now(),
		}
		result, err := c.commit(ctx, change)
		if err == nil {
			c.dispatcher.Settle(ctx, change)
			c.notify(ctx, EventStatusChanged, change, result)
			return result, nil
		}

		if apperror.IsConflict(err) && attempt == 0 && c.statusUnchanged(ctx, project) {
			logger.WithProject(project.ID).Debug("версия проекта изменилась без смены статуса, повтор")
			continue
		}
		return nil, c.fail(ctx, project, req.Target, req.Actor, payload, err)
	}
}

// OpenDispute: особый вход в спор, минуя таблицу переходов. Статус проекта не меняется,
// версия проекта увеличивается в той же транзакции, что и создание спора.
func (c *Coordinator) OpenDispute(ctx context.Context, projectID uuid.UUID, actor entity.Actor, payload lifecycle.DisputePayload) (*Result, error) {
	target := valueobject.ProjectStatusDisputed

	for attempt := 0; ; attempt++ {
		project, err := c.load(ctx, projectID)
		if err != nil {
			return nil, err
		}

		if project.IsReadOnly() {
			err := apperror.New(apperror.ErrCodePreconditionFailed, "проект в архиве доступен только для чтения")
			c.reject(ctx, project, target, actor, err.Message, payload)
			return nil, err
		}

		facts, err := c.loadFacts(ctx, project.ID)
		if err != nil {
			return nil, err
		}

		decision := lifecycle.ValidateDispute(lifecycle.Input{
			Project: project,
			Target:  target,
			Actor:   actor,
			Payload: payload,
			Facts:   facts,
		})
		if !decision.Allowed {
			c.reject(ctx, project, target, actor, decision.Reason, payload)
			return nil, decision.Err()
		}

		// запись в журнале не меняет статус: from и to совпадают
		change := Change{
			Project: project,
			From:    project.Status,
			To:      project.Status,
			Actor:   actor,
			Payload: payload,
			Facts:   facts,
			At:      c.now(),
		}
		result, err := c.commitDispute(ctx, change, payload)
		if err == nil {
			c.notify(ctx, EventDisputeOpened, change, result)
			return result, nil
		}

		if apperror.IsConflict(err) && attempt == 0 && c.statusUnchanged(ctx, project) {
			logger.WithProject(project.ID).Debug("версия проекта изменилась без смены статуса, повтор открытия спора")
			continue
		}
		return nil, c.fail(ctx, project, target, actor, payload, err)
	}
}

// commitDispute увеличивает версию проекта, создаёт спор и пишет журнал в одной транзакции.
func (c *Coordinator) commitDispute(ctx context.Context, change Change, payload lifecycle.DisputePayload) (*Result, error) {
	var result *Result

	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		err := c.projects.CompareAndSwapStatus(txCtx, repository.StatusUpdate{
			ProjectID:       change.Project.ID,
			ExpectedStatus:  change.From,
			ExpectedVersion: change.Project.Version,
			NewStatus:       change.From,
			UpdatedAt:       change.At,
		})
		if err != nil {
			return err
		}

		effects, err := c.dispatcher.Apply(txCtx, change)
		if err != nil {
			if apperror.IsConflict(err) {
				return err
			}
			return &sideEffectError{err: err}
		}

		att := c.attempt(change, valueobject.OutcomeApplied, payload.Note())
		att.Metadata = disputeEntryMetadata(effects.Dispute.ID, payload)
		rec, err := c.recorder.Record(txCtx, att)
		if err != nil {
			return err
		}

		updated, err := c.projects.FindByID(txCtx, change.Project.ID)
		if err != nil {
			return err
		}

		result = &Result{Project: updated, Record: rec, AppliedStatus: change.From, Dispute: effects.Dispute}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// disputeEntry: метаданные записи журнала об открытии спора.
type disputeEntry struct {
	Event     string    `json:"event"`
	DisputeID uuid.UUID `json:"dispute_id"`
	lifecycle.DisputePayload
}

func disputeEntryMetadata(disputeID uuid.UUID, payload lifecycle.DisputePayload) json.RawMessage {
	data, err := json.Marshal(disputeEntry{Event: EventDisputeOpened, DisputeID: disputeID, DisputePayload: payload})
	if err != nil {
		return nil
	}
	return data
}

// commit выполняет условную запись статуса, эффекты и запись журнала в одной транзакции.
func (c *Coordinator) commit(ctx context.Context, change Change) (*Result, error) {
	var result *Result

	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		err := c.projects.CompareAndSwapStatus(txCtx, repository.StatusUpdate{
			ProjectID:       change.Project.ID,
			ExpectedStatus:  change.From,
			ExpectedVersion: change.Project.Version,
			NewStatus:       change.To,
			UpdatedAt:       change.At,
		})
		if err != nil {
			return err
		}

		effects, err := c.dispatcher.Apply(txCtx, change)
		if err != nil {
			return &sideEffectError{err: err}
		}

		rec, err := c.recorder.Record(txCtx, c.attempt(change, valueobject.OutcomeApplied, change.Payload.Note()))
		if err != nil {
			return err
		}

		updated, err := c.projects.FindByID(txCtx, change.Project.ID)
		if err != nil {
			return err
		}

		result = &Result{
			Project:       updated,
			Record:        rec,
			AppliedStatus: change.To,
			Payment:       effects.Payment,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	change.Project.Status = change.To
	change.Project.AssignedProfessionalID = result.Project.AssignedProfessionalID
	return result, nil
}

// fail журналирует отклонённую попытку после отката и приводит ошибку к таксономии.
func (c *Coordinator) fail(ctx context.Context, project *entity.Project, target valueobject.ProjectStatus, actor entity.Actor, payload lifecycle.Payload, err error) error {
	var sideErr *sideEffectError
	switch {
	case errors.As(err, &sideErr):
		logger.WithProject(project.ID).WithError(sideErr.err).Error("сбой побочного эффекта перехода, изменения отменены")
		c.reject(ctx, project, target, actor, ReasonSideEffectFailure, payload)
		return apperror.Wrap(sideErr.err, apperror.ErrCodeSideEffectFailure, "не удалось выполнить операцию, повторите попытку позже")
	case apperror.IsConflict(err):
		c.reject(ctx, project, target, actor, ReasonConflict, payload)
		return err
	default:
		logger.WithProject(project.ID).WithError(err).Error("ошибка применения перехода")
		c.reject(ctx, project, target, actor, err.Error(), payload)
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "ошибка применения перехода")
	}
}

// reject записывает отклонённую попытку вне транзакции. Сбой записи журнала
// не заменяет исходную причину отказа.
func (c *Coordinator) reject(ctx context.Context, project *entity.Project, target valueobject.ProjectStatus, actor entity.Actor, reason string, payload lifecycle.Payload) {
	change := Change{
		Project: project,
		From:    project.Status,
		To:      target,
		Actor:   actor,
		Payload: payload,
		At:      c.now(),
	}
	if _, err := c.recorder.Record(ctx, c.attempt(change, valueobject.OutcomeRejected, reason)); err != nil {
		logger.WithProject(project.ID).WithError(err).Error("не удалось записать отклонённую попытку перехода")
	}

	logger.WithProject(project.ID).WithFields(logrus.Fields{
		"from":     project.Status,
		"to":       target,
		"actor_id": actor.ID,
		"role":     actor.Role,
		"outcome":  valueobject.OutcomeRejected,
	}).Info(reason)
}

func (c *Coordinator) attempt(change Change, outcome valueobject.TransitionOutcome, reason string) Attempt {
	return Attempt{
		ProjectID:  change.Project.ID,
		FromStatus: change.From,
		ToStatus:   change.To,
		Actor:      change.Actor,
		Outcome:    outcome,
		Reason:     reason,
		Metadata:   lifecycle.Metadata(change.Payload),
		At:         change.At,
	}
}

func (c *Coordinator) notify(ctx context.Context, eventType string, change Change, result *Result) {
	logger.WithProject(change.Project.ID).WithFields(logrus.Fields{
		"from":     change.From,
		"to":       change.To,
		"actor_id": change.Actor.ID,
		"role":     change.Actor.Role,
		"outcome":  valueobject.OutcomeApplied,
	}).Info("переход применён")

	event := Event{
		Type:       eventType,
		ProjectID:  change.Project.ID,
		FromStatus: change.From,
		ToStatus:   change.To,
		ActorID:    change.Actor.ID,
		Recipients: result.Project.Participants(),
	}
	if result.Dispute != nil {
		id := result.Dispute.ID
		event.DisputeID = &id
	}
	c.notifier.Publish(context.WithoutCancel(ctx), event)
}

func (c *Coordinator) load(ctx context.Context, projectID uuid.UUID) (*entity.Project, error) {
	project, err := c.projects.FindByID(ctx, projectID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Log.WithField("project_id", projectID.String()).Warn("запрос перехода для несуществующего проекта")
		}
		return nil, err
	}
	return project, nil
}

func (c *Coordinator) loadFacts(ctx context.Context, projectID uuid.UUID) (lifecycle.Facts, error) {
	var facts lifecycle.Facts

	payment, err := c.payments.FindLatestByProject(ctx, projectID)
	if err != nil {
		return facts, err
	}
	dispute, err := c.disputes.FindActiveByProject(ctx, projectID)
	if err != nil {
		return facts, err
	}

	facts.LatestPayment = payment
	facts.OpenDispute = dispute
	return facts, nil
}

// statusUnchanged сообщает, что конфликт вызван записью, не менявшей статус.
func (c *Coordinator) statusUnchanged(ctx context.Context, seen *entity.Project) bool {
	fresh, err := c.projects.FindByID(ctx, seen.ID)
	if err != nil {
		return false
	}
	return fresh.Status == seen.Status && fresh.Version != seen.Version
}

// AvailableActions возвращает статусы, в которые участник может перевести проект.
func (c *Coordinator) AvailableActions(ctx context.Context, projectID uuid.UUID, actor entity.Actor) ([]valueobject.ProjectStatus, error) {
	project, err := c.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(project, actor); err != nil {
		return nil, err
	}
	if project.IsReadOnly() {
		return []valueobject.ProjectStatus{}, nil
	}

	dispute, err := c.disputes.FindActiveByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	targets := lifecycle.AvailableTargets(project.Status, actor.Role, dispute != nil)
	if targets == nil {
		targets = []valueobject.ProjectStatus{}
	}
	return targets, nil
}
