package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/marketplace-backend/internal/app"
	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/db"
	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/service"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
	"github.com/ignatzorin/marketplace-backend/migrations"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lifecyclectl",
		Short:         "Операторские команды координатора жизненного цикла проектов",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetTextFormatter()
		},
	}
	root.AddCommand(
		migrateCmd(),
		tableCmd(),
		historyCmd(),
		verifyCmd(),
		tokenCmd(),
	)
	return root
}

func migrateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить SQL-миграции к базе из DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
				var fsys fs.FS = migrations.FS
				if path != "" {
					fsys = os.DirFS(path)
				}
				applied, err := db.RunMigrations(ctx, conn, fsys)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "новых миграций нет")
					return nil
				}
				for _, name := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "применена", name)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "каталог с миграциями (по умолчанию встроенные)")
	return cmd
}

func tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Показать таблицу переходов",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderEdges(cmd.OutOrStdout(), lifecycle.Edges())
			return nil
		},
	}
}

func renderEdges(out io.Writer, edges []lifecycle.Edge) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Из", "В", "Роли"})
	for _, e := range edges {
		roles := ""
		for i, r := range e.Roles {
			if i > 0 {
				roles += ", "
			}
			roles += string(r)
		}
		tw.AppendRow(table.Row{e.From, e.To, roles})
	}
	tw.Render()
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <project-id>",
		Short: "Показать журнал переходов проекта",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("некорректный идентификатор проекта: %w", err)
			}
			return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
				records, err := persistence.NewTransitionRepositoryAdapter(conn).ListByProject(ctx, projectID)
				if err != nil {
					return err
				}
				renderHistory(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
}

func renderHistory(out io.Writer, records []entity.TransitionRecord) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Время", "Из", "В", "Участник", "Роль", "Итог", "Причина"})
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.OccurredAt.Format(time.RFC3339), r.FromStatus, r.ToStatus, r.ActorID, r.ActorRole, r.Outcome, r.Reason,
		})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "всего", len(records)})
	tw.Render()
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <project-id>",
		Short: "Проверить, что журнал воспроизводит текущий статус проекта",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("некорректный идентификатор проекта: %w", err)
			}
			return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
				services := app.NewServices(app.PostgresRepositories(conn), payment.SandboxGateway{})
				return verifyProject(ctx, cmd.OutOrStdout(), services.Coordinator, projectID)
			})
		},
	}
}

func verifyProject(ctx context.Context, out io.Writer, coordinator *project.Coordinator, projectID uuid.UUID) error {
	result, err := coordinator.VerifyHistory(ctx, projectID)
	if err != nil {
		return fmt.Errorf("журнал проекта %s расходится со статусом: %w", projectID, err)
	}
	fmt.Fprintf(out, "журнал согласован: статус %s, применено %d, отклонено %d\n",
		result.Status, result.Applied, result.Rejected)
	return nil
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить access-токен для локальной отладки",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("выпуск отладочных токенов в production запрещён")
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenTTL
			}
			return issueToken(cmd.OutOrStdout(), service.NewTokenManager(cfg.JWTSecret, ttl), userID, role)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "идентификатор пользователя (по умолчанию новый UUID)")
	cmd.Flags().StringVar(&role, "role", string(valueobject.ActorRoleClient), "роль: client, professional или admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "время жизни токена")
	return cmd
}

func issueToken(out io.Writer, tokens *service.TokenManager, userID, role string) error {
	id := uuid.New()
	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return fmt.Errorf("некорректный идентификатор пользователя: %w", err)
		}
		id = parsed
	}
	actorRole := valueobject.ActorRole(role)
	if !actorRole.IsValid() {
		return fmt.Errorf("неизвестная роль %q", role)
	}

	token, expiresAt, err := tokens.GenerateAccess(entity.Actor{ID: id, Role: actorRole})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user:    %s\nrole:    %s\nexpires: %s\n\n%s\n", id, actorRole, expiresAt.Format(time.RFC3339), token)
	return nil
}

// withDB открывает соединение из конфигурации и закрывает его после fn.
func withDB(ctx context.Context, fn func(ctx context.Context, conn *sqlx.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, conn)
}
