package lifecycle

import (
	"errors"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// Facts: состояние связанных агрегатов, загруженное до проверки.
type Facts struct {
	LatestPayment *entity.Payment
	OpenDispute   *entity.Dispute
}

// Input: всё, что нужно валидатору для решения.
type Input struct {
	Project *entity.Project
	Target  valueobject.ProjectStatus
	Actor   entity.Actor
	Payload Payload
	Facts   Facts
}

// Decision: результат проверки перехода.
type Decision struct {
	Allowed bool
	Code    apperror.ErrorCode
	Reason  string
}

// Err возвращает ошибку приложения для отклонённого решения.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperror.New(d.Code, d.Reason)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(code apperror.ErrorCode, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

func denyErr(err error) Decision {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return deny(appErr.Code, appErr.Message)
	}
	return deny(apperror.ErrCodePreconditionFailed, err.Error())
}

// Validate решает, допустим ли переход. Функция чистая: результат зависит только от in.
func Validate(in Input) Decision {
	p := in.Project
	from := p.Status

	if !in.Target.IsValid() || in.Target == valueobject.ProjectStatusDisputed {
		return deny(apperror.ErrCodeNotFound, "неизвестный целевой статус: "+in.Target.String())
	}

	edges := candidates(from, in.Target, in.Facts.OpenDispute != nil)
	if len(edges) == 0 {
		return deny(apperror.ErrCodeNotFound, "переход "+from.String()+" → "+in.Target.String()+" не предусмотрен")
	}

	permitted := false
	for _, edge := range edges {
		if edge.Allows(in.Actor.Role) {
			permitted = true
			break
		}
	}
	if !permitted {
		return deny(apperror.ErrCodeForbidden, "роль "+string(in.Actor.Role)+" не может выполнить переход "+from.String()+" → "+in.Target.String())
	}

	if d := checkParticipant(p, in.Actor); !d.Allowed {
		return d
	}

	payload := in.Payload
	if payload == nil {
		payload = NewPayload(in.Target)
	}
	if payload.Target() != in.Target {
		return deny(apperror.ErrCodePreconditionFailed, "данные запроса не соответствуют целевому статусу")
	}
	if err := payload.Validate(); err != nil {
		return denyErr(err)
	}

	return checkPreconditions(in, payload)
}

func checkParticipant(p *entity.Project, actor entity.Actor) Decision {
	switch actor.Role {
	case valueobject.ActorRoleClient:
		if !p.IsOwnedBy(actor.ID) {
			return deny(apperror.ErrCodeForbidden, "пользователь не является заказчиком проекта")
		}
	case valueobject.ActorRoleProfessional:
		if !p.IsAssignedTo(actor.ID) {
			return deny(apperror.ErrCodeForbidden, "пользователь не является исполнителем проекта")
		}
	}
	return allow()
}

func checkPreconditions(in Input, payload Payload) Decision {
	p := in.Project

	switch in.Target {
	case valueobject.ProjectStatusAssigned:
		assign := payload.(AssignPayload)
		if assign.ProfessionalID == p.ClientID {
			return deny(apperror.ErrCodePreconditionFailed, "заказчик не может быть исполнителем своего проекта")
		}
	case valueobject.ProjectStatusInProgress:
		if p.AssignedProfessionalID == nil {
			return deny(apperror.ErrCodePreconditionFailed, "у проекта нет назначенного исполнителя")
		}
	case valueobject.ProjectStatusCompleted:
		if pay := in.Facts.LatestPayment; pay != nil && !pay.IsCompleted() {
			return deny(apperror.ErrCodePreconditionFailed, "платёж по проекту не проведён (статус "+string(pay.Status)+")")
		}
		if p.Status == valueobject.ProjectStatusWorkApproved && in.Facts.OpenDispute != nil {
			return deny(apperror.ErrCodePreconditionFailed, "по проекту открыт спор")
		}
	}
	return allow()
}

// ValidateDispute проверяет специальный вход в спор, минуя таблицу переходов.
func ValidateDispute(in Input) Decision {
	p := in.Project

	if IsTerminal(p.Status) {
		return deny(apperror.ErrCodePreconditionFailed, "нельзя открыть спор по проекту в статусе "+p.Status.String())
	}
	if in.Actor.Role != valueobject.ActorRoleClient && in.Actor.Role != valueobject.ActorRoleProfessional {
		return deny(apperror.ErrCodeForbidden, "открыть спор может только участник проекта")
	}
	if d := checkParticipant(p, in.Actor); !d.Allowed {
		return d
	}
	if in.Facts.OpenDispute != nil {
		return deny(apperror.ErrCodeConflict, "по проекту уже открыт спор")
	}

	payload, ok := in.Payload.(DisputePayload)
	if !ok {
		return deny(apperror.ErrCodePreconditionFailed, "данные запроса не соответствуют открытию спора")
	}
	if err := payload.Validate(); err != nil {
		return denyErr(err)
	}

	counterparty, ok := p.Counterparty(in.Actor.ID)
	if !ok || counterparty != payload.RespondentID {
		return deny(apperror.ErrCodePreconditionFailed, "ответчиком может быть только вторая сторона проекта")
	}
	return allow()
}
