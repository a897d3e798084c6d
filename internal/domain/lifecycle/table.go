// Package lifecycle содержит таблицу переходов проекта и чистые функции проверки.
// Никакой другой пакет не решает, какой статус может следовать за текущим.
package lifecycle

import (
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// Edge: разрешённый переход и роли, которые могут его выполнить.
type Edge struct {
	From  valueobject.ProjectStatus
	To    valueobject.ProjectStatus
	Roles []valueobject.ActorRole
}

// Allows сообщает, может ли роль выполнить переход.
func (e Edge) Allows(role valueobject.ActorRole) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type row struct {
	targets []valueobject.ProjectStatus
	roles   []valueobject.ActorRole
}

var (
	client       = valueobject.ActorRoleClient
	professional = valueobject.ActorRoleProfessional
	admin        = valueobject.ActorRoleAdmin
	system       = valueobject.ActorRoleSystem
)

// table: единственный источник правил переходов. Роли строки действуют на все её переходы.
var table = map[valueobject.ProjectStatus]row{
	valueobject.ProjectStatusDraft: {
		targets: statuses(valueobject.ProjectStatusOpen, valueobject.ProjectStatusArchived),
		roles:   roles(client),
	},
	valueobject.ProjectStatusOpen: {
		targets: statuses(valueobject.ProjectStatusAssigned, valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(client, system),
	},
	valueobject.ProjectStatusAssigned: {
		targets: statuses(valueobject.ProjectStatusInProgress, valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(professional, client),
	},
	valueobject.ProjectStatusInProgress: {
		targets: statuses(valueobject.ProjectStatusWorkSubmitted, valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(professional, client),
	},
	valueobject.ProjectStatusWorkSubmitted: {
		targets: statuses(valueobject.ProjectStatusWorkRevisionRequested, valueobject.ProjectStatusWorkApproved, valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(client),
	},
	valueobject.ProjectStatusWorkRevisionRequested: {
		targets: statuses(valueobject.ProjectStatusWorkSubmitted, valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(professional),
	},
	valueobject.ProjectStatusWorkApproved: {
		targets: statuses(valueobject.ProjectStatusCompleted, valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(client, system),
	},
	valueobject.ProjectStatusCompleted: {
		targets: statuses(valueobject.ProjectStatusArchived),
		roles:   roles(client, system),
	},
	valueobject.ProjectStatusArchived:  {},
	valueobject.ProjectStatusCancelled: {},
	valueobject.ProjectStatusDisputed: {
		targets: statuses(valueobject.ProjectStatusArchived, valueobject.ProjectStatusCancelled),
		roles:   roles(admin),
	},
}

func statuses(s ...valueobject.ProjectStatus) []valueobject.ProjectStatus { return s }
func roles(r ...valueobject.ActorRole) []valueobject.ActorRole            { return r }

// Lookup возвращает переход from → to, если он есть в таблице.
func Lookup(from, to valueobject.ProjectStatus) (Edge, bool) {
	r, ok := table[from]
	if !ok {
		return Edge{}, false
	}
	for _, t := range r.targets {
		if t == to {
			return Edge{From: from, To: to, Roles: append([]valueobject.ActorRole(nil), r.roles...)}, true
		}
	}
	return Edge{}, false
}

// Targets возвращает допустимые следующие статусы без учёта ролей.
func Targets(from valueobject.ProjectStatus) []valueobject.ProjectStatus {
	return append([]valueobject.ProjectStatus(nil), table[from].targets...)
}

// IsTerminal сообщает, что из статуса нет ни одного перехода.
func IsTerminal(status valueobject.ProjectStatus) bool {
	r, ok := table[status]
	return ok && len(r.targets) == 0
}

// Edges перечисляет все переходы в порядке жизненного цикла.
func Edges() []Edge {
	var edges []Edge
	for _, from := range valueobject.AllProjectStatuses {
		for _, to := range table[from].targets {
			edge, _ := Lookup(from, to)
			edges = append(edges, edge)
		}
	}
	return edges
}

// candidates возвращает переходы, которые рассматриваются для проекта. При открытом
// споре к собственной строке статуса добавляется строка disputed.
func candidates(from, to valueobject.ProjectStatus, hasOpenDispute bool) []Edge {
	var edges []Edge
	if edge, ok := Lookup(from, to); ok {
		edges = append(edges, edge)
	}
	if hasOpenDispute && from != valueobject.ProjectStatusDisputed && !IsTerminal(from) {
		if edge, ok := Lookup(valueobject.ProjectStatusDisputed, to); ok {
			edges = append(edges, edge)
		}
	}
	return edges
}

// AvailableTargets возвращает статусы, в которые роль может перевести проект.
// Дополнительные предусловия (платёж, обязательные поля) здесь не проверяются.
func AvailableTargets(from valueobject.ProjectStatus, role valueobject.ActorRole, hasOpenDispute bool) []valueobject.ProjectStatus {
	seen := make(map[valueobject.ProjectStatus]bool)
	var result []valueobject.ProjectStatus

	targets := Targets(from)
	if hasOpenDispute && from != valueobject.ProjectStatusDisputed && !IsTerminal(from) {
		targets = append(targets, Targets(valueobject.ProjectStatusDisputed)...)
	}
	for _, to := range targets {
		if seen[to] {
			continue
		}
		for _, edge := range candidates(from, to, hasOpenDispute) {
			if edge.Allows(role) {
				seen[to] = true
				result = append(result, to)
				break
			}
		}
	}
	return result
}
