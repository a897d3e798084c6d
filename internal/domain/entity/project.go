package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// Actor: участник, от имени которого выполняется операция.
type Actor struct {
	ID   uuid.UUID
	Role valueobject.ActorRole
}

// SystemActor используется внутренними вызовами (колбэки платёжного шлюза).
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: valueobject.ActorRoleSystem}
}

// Project: агрегат, статус которого меняет только координатор жизненного цикла.
type Project struct {
	ID                     uuid.UUID
	ClientID               uuid.UUID
	AssignedProfessionalID *uuid.UUID
	Title                  string
	Budget                 valueobject.Money
	Status                 valueobject.ProjectStatus
	PaymentStatus          valueobject.ProjectPaymentStatus
	Version                int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func NewProject(clientID uuid.UUID, title string, budget float64, currency string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название проекта обязательно")
	}
	if clientID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указан заказчик")
	}

	money, err := valueobject.NewMoney(budget, currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Project{
		ID:            uuid.New(),
		ClientID:      clientID,
		Title:         title,
		Budget:        money,
		Status:        valueobject.ProjectStatusDraft,
		PaymentStatus: valueobject.ProjectPaymentUnpaid,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (p *Project) IsOwnedBy(userID uuid.UUID) bool {
	return p.ClientID == userID
}

func (p *Project) IsAssignedTo(userID uuid.UUID) bool {
	return p.AssignedProfessionalID != nil && *p.AssignedProfessionalID == userID
}

// IsParticipant сообщает, является ли пользователь заказчиком или назначенным исполнителем.
func (p *Project) IsParticipant(userID uuid.UUID) bool {
	return p.IsOwnedBy(userID) || p.IsAssignedTo(userID)
}

// IsReadOnly: архивный проект допускает только дополнение архивных заметок.
func (p *Project) IsReadOnly() bool {
	return p.Status == valueobject.ProjectStatusArchived
}

// Counterparty возвращает вторую сторону проекта для участника userID.
func (p *Project) Counterparty(userID uuid.UUID) (uuid.UUID, bool) {
	switch {
	case p.IsOwnedBy(userID) && p.AssignedProfessionalID != nil:
		return *p.AssignedProfessionalID, true
	case p.IsAssignedTo(userID):
		return p.ClientID, true
	}
	return uuid.Nil, false
}

// Participants возвращает получателей уведомлений о проекте.
func (p *Project) Participants() []uuid.UUID {
	ids := []uuid.UUID{p.ClientID}
	if p.AssignedProfessionalID != nil {
		ids = append(ids, *p.AssignedProfessionalID)
	}
	return ids
}

// Clone возвращает независимую копию проекта.
func (p *Project) Clone() *Project {
	cp := *p
	if p.AssignedProfessionalID != nil {
		id := *p.AssignedProfessionalID
		cp.AssignedProfessionalID = &id
	}
	return &cp
}
