package logger

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Log: общий логгер процесса. До вызова Init пишет в stderr с уровнем info.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// Discard отключает вывод логов (тесты).
func Discard() {
	Log.SetOutput(io.Discard)
}

// WithProject возвращает запись с полем project_id.
func WithProject(projectID uuid.UUID) *logrus.Entry {
	return Log.WithField("project_id", projectID.String())
}
