package project

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
)

// Change: проверенный переход, для которого выполняются побочные эффекты.
type Change struct {
	Project *entity.Project
	From    valueobject.ProjectStatus
	To      valueobject.ProjectStatus
	Actor   entity.Actor
	Payload lifecycle.Payload
	Facts   lifecycle.Facts
	At      time.Time
}

// Effects: записи, созданные диспетчером.
type Effects struct {
	Payment *entity.Payment
	Dispute *entity.Dispute
	Archive *entity.ArchiveRecord
}

// Dispatcher выполняет записи, которые требует переход помимо статуса проекта.
type Dispatcher struct {
	projects     repository.ProjectRepository
	payments     repository.PaymentRepository
	disputes     repository.DisputeRepository
	archives     repository.ArchiveRepository
	applications repository.ApplicationRepository
	gateway      PaymentGateway
}

func NewDispatcher(
	projects repository.ProjectRepository,
	payments repository.PaymentRepository,
	disputes repository.DisputeRepository,
	archives repository.ArchiveRepository,
	applications repository.ApplicationRepository,
	gateway PaymentGateway,
) *Dispatcher {
	return &Dispatcher{
		projects:     projects,
		payments:     payments,
		disputes:     disputes,
		archives:     archives,
		applications: applications,
		gateway:      gateway,
	}
}

// Apply выполняет эффекты внутри транзакции перехода. Любая ошибка отменяет переход.
func (d *Dispatcher) Apply(ctx context.Context, c Change) (Effects, error) {
	var effects Effects

	switch {
	case isDisputeEntry(c.Payload):
		payload := c.Payload.(lifecycle.DisputePayload)
		dispute := &entity.Dispute{
			ID:           uuid.New(),
			ProjectID:    c.Project.ID,
			InitiatorID:  c.Actor.ID,
			RespondentID: payload.RespondentID,
			Type:         payload.Type,
			Title:        payload.Title,
			Description:  payload.Description,
			Status:       valueobject.DisputeStatusOpen,
			CreatedAt:    c.At,
			UpdatedAt:    c.At,
		}
		if err := d.disputes.Create(ctx, dispute); err != nil {
			return effects, err
		}
		effects.Dispute = dispute

	case c.To == valueobject.ProjectStatusAssigned:
		payload := c.Payload.(lifecycle.AssignPayload)
		if err := d.projects.SetAssignedProfessional(ctx, c.Project.ID, payload.ProfessionalID, c.At); err != nil {
			return effects, fmt.Errorf("назначение исполнителя: %w", err)
		}
		id := payload.ProfessionalID
		c.Project.AssignedProfessionalID = &id

	case c.From == valueobject.ProjectStatusWorkApproved && c.To == valueobject.ProjectStatusCompleted:
		if c.Facts.LatestPayment != nil && c.Facts.LatestPayment.IsCompleted() {
			break
		}
		payment, err := d.initiatePayment(ctx, c.Project, c.At)
		if err != nil {
			return effects, err
		}
		effects.Payment = payment

	case c.To == valueobject.ProjectStatusArchived:
		payload := c.Payload.(lifecycle.ArchivePayload)
		record := &entity.ArchiveRecord{
			ID:         uuid.New(),
			ProjectID:  c.Project.ID,
			ArchivedBy: c.Actor.ID,
			Reason:     payload.Note(),
			Notes:      []string{},
			CreatedAt:  c.At,
			UpdatedAt:  c.At,
		}
		if err := d.archives.Create(ctx, record); err != nil {
			return effects, fmt.Errorf("создание записи архива: %w", err)
		}
		effects.Archive = record
	}

	return effects, nil
}

// initiatePayment создаёт платёж в статусе pending и открывает сессию в шлюзе.
// Шлюз вызывается после записей в базу. Сессия, открытая перед неудачной фиксацией,
// остаётся в шлюзе без платежа и истекает на его стороне.
func (d *Dispatcher) initiatePayment(ctx context.Context, p *entity.Project, at time.Time) (*entity.Payment, error) {
	if p.AssignedProfessionalID == nil {
		return nil, fmt.Errorf("у проекта нет исполнителя для выплаты")
	}

	payment := &entity.Payment{
		ID:        uuid.New(),
		ProjectID: p.ID,
		PayerID:   p.ClientID,
		PayeeID:   *p.AssignedProfessionalID,
		Amount:    p.Budget,
		Status:    valueobject.PaymentStatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}

	if err := d.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("сохранение платежа: %w", err)
	}
	if err := d.projects.UpdatePaymentStatus(ctx, p.ID, valueobject.ProjectPaymentPending, at); err != nil {
		return nil, fmt.Errorf("статус оплаты проекта: %w", err)
	}

	session, err := d.gateway.InitiatePayment(ctx, PaymentRequest{
		PaymentID: payment.ID,
		ProjectID: p.ID,
		Amount:    payment.Amount,
		PayerID:   payment.PayerID,
		PayeeID:   payment.PayeeID,
	})
	if err != nil {
		return nil, fmt.Errorf("инициация платежа: %w", err)
	}
	payment.ExternalID = &session.ExternalID
	if session.RedirectURL != "" {
		payment.RedirectURL = &session.RedirectURL
	}
	if err := d.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("сохранение сессии платежа: %w", err)
	}

	p.PaymentStatus = valueobject.ProjectPaymentPending
	return payment, nil
}

func isDisputeEntry(p lifecycle.Payload) bool {
	_, ok := p.(lifecycle.DisputePayload)
	return ok
}

// Settle выполняет эффекты, не входящие в транзакцию перехода. Ошибки только логируются.
func (d *Dispatcher) Settle(ctx context.Context, c Change) {
	if c.To != valueobject.ProjectStatusAssigned || c.Project.AssignedProfessionalID == nil {
		return
	}

	accepted, rejected, err := d.applications.ResolveForAssignment(ctx, c.Project.ID, *c.Project.AssignedProfessionalID, c.At)
	log := logger.WithProject(c.Project.ID)
	if err != nil {
		log.WithError(err).Error("не удалось обработать заявки после назначения исполнителя")
		return
	}
	log.WithFields(logrus.Fields{
		"accepted": accepted,
		"rejected": rejected,
	}).Debug("заявки обработаны после назначения")
}
