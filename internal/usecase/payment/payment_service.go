package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

// ArchiveReasonPaymentFailed: причина архивации после неуспешного платежа.
const ArchiveReasonPaymentFailed = "payment_failed"

// Transitioner: вход в координатор жизненного цикла.
type Transitioner interface {
	RequestTransition(ctx context.Context, req project.Request) (*project.Result, error)
}

// Callback: уведомление шлюза об изменении статуса платежа.
type Callback struct {
	ExternalID string
	Status     valueobject.PaymentStatus
	Reason     string
}

// CallbackResult: итог обработки колбэка. Transition заполнен, если колбэк
// привёл к смене статуса проекта.
type CallbackResult struct {
	Payment         *entity.Payment
	Duplicate       bool
	Transition      *project.Result
	TransitionError error
}

// Service связывает платёжный шлюз с жизненным циклом проекта. Статус проекта
// меняется только через координатор.
type Service struct {
	tx          repository.Transactor
	projects    repository.ProjectRepository
	payments    repository.PaymentRepository
	gateway     project.PaymentGateway
	coordinator Transitioner
	now         func() time.Time
}

func NewService(
	tx repository.Transactor,
	projects repository.ProjectRepository,
	payments repository.PaymentRepository,
	gateway project.PaymentGateway,
	coordinator Transitioner,
) *Service {
	return &Service{
		tx:          tx,
		projects:    projects,
		payments:    payments,
		gateway:     gateway,
		coordinator: coordinator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// InitiatePayment открывает оплату для проекта, работа по которому принята.
func (s *Service) InitiatePayment(ctx context.Context, projectID uuid.UUID, actor entity.Actor) (*entity.Payment, error) {
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.Role != valueobject.ActorRoleClient || !p.IsOwnedBy(actor.ID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оплатить проект может только его заказчик")
	}
	if p.IsReadOnly() {
		return nil, apperror.New(apperror.ErrCodePreconditionFailed, "проект в архиве доступен только для чтения")
	}
	if p.Status != valueobject.ProjectStatusWorkApproved {
		return nil, apperror.New(apperror.ErrCodePreconditionFailed, "оплата доступна после приёмки работы")
	}
	if p.AssignedProfessionalID == nil {
		return nil, apperror.New(apperror.ErrCodePreconditionFailed, "у проекта нет исполнителя")
	}

	latest, err := s.payments.FindLatestByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.IsOutstanding() {
		return nil, apperror.New(apperror.ErrCodeConflict, "платёж по проекту уже создан")
	}

	now := s.now()
	payment := &entity.Payment{
		ID:        uuid.New(),
		ProjectID: p.ID,
		PayerID:   p.ClientID,
		PayeeID:   *p.AssignedProfessionalID,
		Amount:    p.Budget,
		Status:    valueobject.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	session, err := s.gateway.InitiatePayment(ctx, project.PaymentRequest{
		PaymentID: payment.ID,
		ProjectID: p.ID,
		Amount:    payment.Amount,
		PayerID:   payment.PayerID,
		PayeeID:   payment.PayeeID,
	})
	if err != nil {
		logger.WithProject(p.ID).WithError(err).Error("платёжный шлюз недоступен")
		return nil, apperror.Wrap(err, apperror.ErrCodeSideEffectFailure, "платёжный шлюз недоступен, повторите попытку позже")
	}
	payment.ExternalID = &session.ExternalID
	if session.RedirectURL != "" {
		payment.RedirectURL = &session.RedirectURL
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.payments.Create(txCtx, payment); err != nil {
			return err
		}
		return s.projects.UpdatePaymentStatus(txCtx, p.ID, valueobject.ProjectPaymentPending, now)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// HandleCallback применяет результат платежа и при необходимости возвращается
// в координатор от имени системы: успех ведёт к completed, отказ ведёт к archived.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) (*CallbackResult, error) {
	switch cb.Status {
	case valueobject.PaymentStatusProcessing, valueobject.PaymentStatusCompleted,
		valueobject.PaymentStatusFailed, valueobject.PaymentStatusRefunded:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("некорректный статус платежа: %q", cb.Status))
	}

	payment, err := s.payments.FindByExternalID(ctx, cb.ExternalID)
	if err != nil {
		return nil, err
	}
	if payment.Status.IsFinal() {
		return &CallbackResult{Payment: payment, Duplicate: true}, nil
	}

	now := s.now()
	payment.Status = cb.Status
	payment.UpdatedAt = now
	if cb.Status == valueobject.PaymentStatusFailed && cb.Reason != "" {
		reason := cb.Reason
		payment.FailureReason = &reason
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.payments.Update(txCtx, payment); err != nil {
			return err
		}
		return s.projects.UpdatePaymentStatus(txCtx, payment.ProjectID, cb.Status.ProjectPayment(), now)
	})
	if err != nil {
		return nil, err
	}

	result := &CallbackResult{Payment: payment}
	p, err := s.projects.FindByID(ctx, payment.ProjectID)
	if err != nil {
		return nil, err
	}

	var req *project.Request
	switch {
	case cb.Status == valueobject.PaymentStatusCompleted && p.Status == valueobject.ProjectStatusWorkApproved:
		req = &project.Request{ProjectID: p.ID, Target: valueobject.ProjectStatusCompleted, Actor: entity.SystemActor()}
	case cb.Status == valueobject.PaymentStatusFailed && !lifecycle.IsTerminal(p.Status):
		req = &project.Request{
			ProjectID: p.ID,
			Target:    valueobject.ProjectStatusArchived,
			Actor:     entity.SystemActor(),
			Payload:   lifecycle.ArchivePayload{ArchiveReason: ArchiveReasonPaymentFailed},
		}
	}
	if req == nil {
		return result, nil
	}

	result.Transition, result.TransitionError = s.coordinator.RequestTransition(ctx, *req)
	if result.TransitionError != nil {
		logger.WithProject(p.ID).WithError(result.TransitionError).WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"target":     req.Target,
		}).Warn("колбэк платежа не привёл к смене статуса проекта")
	}
	return result, nil
}
