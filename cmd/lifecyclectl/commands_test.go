package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/internal/app"
	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/marketplace-backend/internal/service"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

func TestTableCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"table"})

	require.NoError(t, root.Execute())
	text := out.String()
	assert.Contains(t, text, "work_revision_requested")
	assert.Contains(t, text, "professional, client")
}

func TestIssueToken(t *testing.T) {
	tokens := service.NewTokenManager("cli-test-secret-cli-test-secret-xx", time.Hour)
	userID := uuid.New()

	var out bytes.Buffer
	require.NoError(t, issueToken(&out, tokens, userID.String(), "professional"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	actor, err := tokens.ParseAccess(lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, userID, actor.ID)
	assert.Equal(t, valueobject.ActorRoleProfessional, actor.Role)

	assert.Error(t, issueToken(&out, tokens, "", "wizard"))
	assert.Error(t, issueToken(&out, tokens, "not-a-uuid", "client"))
	assert.Error(t, issueToken(&out, tokens, "", string(valueobject.ActorRoleSystem)))
}

func TestVerifyProject(t *testing.T) {
	ctx := context.Background()
	services := app.NewServices(app.MemoryRepositories(memory.NewStore()), payment.SandboxGateway{})
	client := entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleClient}

	p, err := services.CreateProject.Execute(ctx, client, project.CreateProjectInput{Title: "Монтаж кондиционера", Budget: 300})
	require.NoError(t, err)
	_, err = services.Coordinator.RequestTransition(ctx, project.Request{ProjectID: p.ID, Target: valueobject.ProjectStatusOpen, Actor: client})
	require.NoError(t, err)
	_, err = services.Coordinator.RequestTransition(ctx, project.Request{ProjectID: p.ID, Target: valueobject.ProjectStatusCompleted, Actor: client})
	require.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, verifyProject(ctx, &out, services.Coordinator, p.ID))
	assert.Contains(t, out.String(), "статус open, применено 1, отклонено 1")

	assert.Error(t, verifyProject(ctx, &out, services.Coordinator, uuid.New()))
}

func TestRenderHistory(t *testing.T) {
	var out bytes.Buffer
	renderHistory(&out, []entity.TransitionRecord{{
		FromStatus: valueobject.ProjectStatusDraft,
		ToStatus:   valueobject.ProjectStatusOpen,
		ActorID:    uuid.New(),
		ActorRole:  valueobject.ActorRoleClient,
		Outcome:    valueobject.OutcomeApplied,
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, out.String(), "2026-03-01T10:00:00Z")
	assert.Contains(t, out.String(), "draft")
}
