package ws

import (
	"context"

	"github.com/ignatzorin/marketplace-backend/internal/goroutine"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
)

// Notifier доставляет события проекта участникам через хаб.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// Publish рассылает событие в фоне и сразу возвращает управление.
func (n *Notifier) Publish(_ context.Context, event project.Event) {
	goroutine.Go("ws.publish", func() {
		for _, userID := range event.Recipients {
			if err := n.hub.BroadcastToUser(userID, event.Type, event); err != nil {
				logger.WithProject(event.ProjectID).
					WithError(err).
					WithField("user_id", userID.String()).
					Warn("ws: не удалось доставить событие")
			}
		}
	})
}
