// Package app собирает репозитории, сценарии и HTTP-обработчики в одно приложение.
package app

import (
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/domain/repository"
	"github.com/ignatzorin/marketplace-backend/internal/http/router"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/handler"
	"github.com/ignatzorin/marketplace-backend/internal/service"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/application"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/dispute"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/payment"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
	"github.com/ignatzorin/marketplace-backend/internal/ws"
)

// Repositories: набор портов хранилища одной реализации.
type Repositories struct {
	Tx           repository.Transactor
	Projects     repository.ProjectRepository
	Transitions  repository.TransitionRepository
	Disputes     repository.DisputeRepository
	Payments     repository.PaymentRepository
	Applications repository.ApplicationRepository
	Archives     repository.ArchiveRepository
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Tx:           store,
		Projects:     memory.NewProjectRepository(store),
		Transitions:  memory.NewTransitionRepository(store),
		Disputes:     memory.NewDisputeRepository(store),
		Payments:     memory.NewPaymentRepository(store),
		Applications: memory.NewApplicationRepository(store),
		Archives:     memory.NewArchiveRepository(store),
	}
}

func PostgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Tx:           persistence.NewTransactor(db),
		Projects:     persistence.NewProjectRepositoryAdapter(db),
		Transitions:  persistence.NewTransitionRepositoryAdapter(db),
		Disputes:     persistence.NewDisputeRepositoryAdapter(db),
		Payments:     persistence.NewPaymentRepositoryAdapter(db),
		Applications: persistence.NewApplicationRepositoryAdapter(db),
		Archives:     persistence.NewArchiveRepositoryAdapter(db),
	}
}

// Services: сценарии приложения поверх одного набора репозиториев.
type Services struct {
	Coordinator   *project.Coordinator
	CreateProject *project.CreateProjectUseCase
	GetProject    *project.GetProjectUseCase
	ArchiveNote   *project.AppendArchiveNoteUseCase

	ListDisputes  *dispute.ListUseCase
	ChangeDispute *dispute.ChangeStatusUseCase

	SubmitApplication   *application.SubmitUseCase
	WithdrawApplication *application.WithdrawUseCase
	ListApplications    *application.ListUseCase

	Payments *payment.Service
}

func NewServices(repos Repositories, gateway project.PaymentGateway, opts ...project.Option) *Services {
	dispatcher := project.NewDispatcher(repos.Projects, repos.Payments, repos.Disputes, repos.Archives, repos.Applications, gateway)
	coordinator := project.NewCoordinator(
		repos.Tx,
		repos.Projects,
		repos.Payments,
		repos.Disputes,
		project.NewRecorder(repos.Transitions),
		dispatcher,
		opts...,
	)

	return &Services{
		Coordinator:         coordinator,
		CreateProject:       project.NewCreateProjectUseCase(repos.Projects),
		GetProject:          project.NewGetProjectUseCase(repos.Projects),
		ArchiveNote:         project.NewAppendArchiveNoteUseCase(repos.Projects, repos.Archives),
		ListDisputes:        dispute.NewListUseCase(repos.Projects, repos.Disputes),
		ChangeDispute:       dispute.NewChangeStatusUseCase(repos.Disputes),
		SubmitApplication:   application.NewSubmitUseCase(repos.Projects, repos.Applications),
		WithdrawApplication: application.NewWithdrawUseCase(repos.Applications),
		ListApplications:    application.NewListUseCase(repos.Projects, repos.Applications),
		Payments:            payment.NewService(repos.Tx, repos.Projects, repos.Payments, gateway, coordinator),
	}
}

// HandlerDeps: внешние зависимости HTTP-слоя.
type HandlerDeps struct {
	Tokens         *service.TokenManager
	Hub            *ws.Hub
	DB             handler.Pinger
	Storage        string
	WebhookSecret  string
	AllowedOrigins []string
}

func NewHandlers(s *Services, deps HandlerDeps) router.Handlers {
	h := router.Handlers{
		Project:     handler.NewProjectHandler(s.Coordinator, s.CreateProject, s.GetProject, s.ArchiveNote),
		Dispute:     handler.NewDisputeHandler(s.ListDisputes, s.ChangeDispute),
		Application: handler.NewApplicationHandler(s.SubmitApplication, s.WithdrawApplication, s.ListApplications),
		Payment:     handler.NewPaymentHandler(s.Payments, deps.WebhookSecret),
		Health:      handler.NewHealthHandler(deps.DB, deps.Storage),
	}
	if deps.Hub != nil {
		h.WS = handler.NewWSHandler(deps.Hub, deps.Tokens, deps.AllowedOrigins)
	}
	return h
}
