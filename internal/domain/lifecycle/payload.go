package lifecycle

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// Payload: данные запроса перехода. Вариант определяется целевым статусом.
type Payload interface {
	// Target: статус, для которого предназначен вариант.
	Target() valueobject.ProjectStatus
	// Validate проверяет обязательные поля варианта.
	Validate() error
	// Note: текст для поля reason записи журнала.
	Note() string
}

// AssignPayload выбирает исполнителя при переходе в assigned.
type AssignPayload struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
}

func (AssignPayload) Target() valueobject.ProjectStatus { return valueobject.ProjectStatusAssigned }
func (AssignPayload) Note() string                      { return "" }

func (p AssignPayload) Validate() error {
	if p.ProfessionalID == uuid.Nil {
		return precondition("для назначения требуется исполнитель")
	}
	return nil
}

// RevisionPayload: замечания заказчика при запросе доработки.
type RevisionPayload struct {
	RevisionNotes string `json:"revision_notes"`
}

func (RevisionPayload) Target() valueobject.ProjectStatus {
	return valueobject.ProjectStatusWorkRevisionRequested
}
func (p RevisionPayload) Note() string { return strings.TrimSpace(p.RevisionNotes) }

func (p RevisionPayload) Validate() error {
	if strings.TrimSpace(p.RevisionNotes) == "" {
		return precondition("для запроса доработки требуются замечания (revision_notes)")
	}
	return nil
}

// ArchivePayload: причина архивации.
type ArchivePayload struct {
	ArchiveReason string `json:"archive_reason"`
}

func (ArchivePayload) Target() valueobject.ProjectStatus { return valueobject.ProjectStatusArchived }
func (p ArchivePayload) Note() string                    { return strings.TrimSpace(p.ArchiveReason) }

func (p ArchivePayload) Validate() error {
	if strings.TrimSpace(p.ArchiveReason) == "" {
		return precondition("для архивации требуется причина (archive_reason)")
	}
	return nil
}

// CancelPayload: необязательная причина отмены.
type CancelPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (CancelPayload) Target() valueobject.ProjectStatus { return valueobject.ProjectStatusCancelled }
func (p CancelPayload) Note() string                    { return strings.TrimSpace(p.Reason) }
func (CancelPayload) Validate() error                   { return nil }

// DisputePayload открывает спор по проекту.
type DisputePayload struct {
	Type         valueobject.DisputeType `json:"type"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	RespondentID uuid.UUID               `json:"respondent_id"`
}

func (DisputePayload) Target() valueobject.ProjectStatus { return valueobject.ProjectStatusDisputed }
func (p DisputePayload) Note() string                    { return strings.TrimSpace(p.Title) }

func (p DisputePayload) Validate() error {
	if !p.Type.IsValid() {
		return precondition("некорректный тип спора")
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
		return precondition("для спора требуются заголовок и описание")
	}
	if p.RespondentID == uuid.Nil {
		return precondition("не указан ответчик по спору")
	}
	return nil
}

// EmptyPayload: переход без дополнительных данных.
type EmptyPayload struct {
	For valueobject.ProjectStatus `json:"-"`
}

func (p EmptyPayload) Target() valueobject.ProjectStatus { return p.For }
func (EmptyPayload) Note() string                        { return "" }
func (EmptyPayload) Validate() error                     { return nil }

// NewPayload возвращает пустой вариант, соответствующий целевому статусу.
func NewPayload(target valueobject.ProjectStatus) Payload {
	switch target {
	case valueobject.ProjectStatusAssigned:
		return AssignPayload{}
	case valueobject.ProjectStatusWorkRevisionRequested:
		return RevisionPayload{}
	case valueobject.ProjectStatusArchived:
		return ArchivePayload{}
	case valueobject.ProjectStatusCancelled:
		return CancelPayload{}
	case valueobject.ProjectStatusDisputed:
		return DisputePayload{}
	default:
		return EmptyPayload{For: target}
	}
}

// DecodePayload разбирает JSON в вариант, соответствующий целевому статусу.
// Отсутствие полей здесь не ошибка: их проверяет валидатор.
func DecodePayload(target valueobject.ProjectStatus, raw json.RawMessage) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	empty := len(raw) == 0 || bytes.Equal(raw, []byte("null"))

	var (
		payload Payload
		err     error
	)
	switch target {
	case valueobject.ProjectStatusAssigned:
		var p AssignPayload
		err = decode(raw, empty, &p)
		payload = p
	case valueobject.ProjectStatusWorkRevisionRequested:
		var p RevisionPayload
		err = decode(raw, empty, &p)
		payload = p
	case valueobject.ProjectStatusArchived:
		var p ArchivePayload
		err = decode(raw, empty, &p)
		payload = p
	case valueobject.ProjectStatusCancelled:
		var p CancelPayload
		err = decode(raw, empty, &p)
		payload = p
	case valueobject.ProjectStatusDisputed:
		var p DisputePayload
		err = decode(raw, empty, &p)
		payload = p
	default:
		payload = EmptyPayload{For: target}
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректные данные перехода")
	}
	return payload, nil
}

func decode(raw []byte, empty bool, v any) error {
	if empty {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Metadata сериализует вариант для журнала. Для пустых вариантов возвращает nil.
func Metadata(p Payload) json.RawMessage {
	if p == nil {
		return nil
	}
	if _, ok := p.(EmptyPayload); ok {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}

func precondition(msg string) error {
	return apperror.New(apperror.ErrCodePreconditionFailed, msg)
}
