package lifecycle

import (
	"fmt"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// ReplayResult: состояние, восстановленное из журнала переходов.
type ReplayResult struct {
	Status   valueobject.ProjectStatus
	Applied  int
	Rejected int
}

// Replay восстанавливает статус проекта из журнала, начиная с draft.
// Текущий статус равен to_status последней применённой записи.
func Replay(records []entity.TransitionRecord) (ReplayResult, error) {
	result := ReplayResult{Status: valueobject.ProjectStatusDraft}

	for i, rec := range records {
		if !rec.IsApplied() {
			result.Rejected++
			continue
		}
		if rec.FromStatus != result.Status {
			return result, fmt.Errorf("запись %d (%s): ожидался исходный статус %s, в журнале %s",
				i, rec.ID, result.Status, rec.FromStatus)
		}
		result.Status = rec.ToStatus
		result.Applied++
	}
	return result, nil
}

// Verify проверяет, что журнал воспроизводит текущий статус проекта.
func Verify(project *entity.Project, records []entity.TransitionRecord) error {
	result, err := Replay(records)
	if err != nil {
		return err
	}
	if result.Status != project.Status {
		return fmt.Errorf("журнал приводит к статусу %s, у проекта %s", result.Status, project.Status)
	}
	return nil
}
