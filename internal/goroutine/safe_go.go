// Package goroutine запускает фоновые задачи так, что panic в них не останавливает процесс.
package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-backend/internal/logger"
)

// PanicHandler получает имя задачи, значение panic и стек.
type PanicHandler func(task string, recovered any, stack []byte)

// Runner запускает горутины и перехватывает panic в них.
type Runner struct {
	onPanic PanicHandler
}

func NewRunner(onPanic PanicHandler) *Runner {
	return &Runner{onPanic: onPanic}
}

// Go запускает fn в отдельной горутине.
func (r *Runner) Go(task string, fn func()) {
	go func() {
		defer r.recover(task)
		fn()
	}()
}

// GoWithContext запускает fn с контекстом вызывающего.
func (r *Runner) GoWithContext(ctx context.Context, task string, fn func(context.Context)) {
	go func() {
		defer r.recover(task)
		fn(ctx)
	}()
}

func (r *Runner) recover(task string) {
	if rec := recover(); rec != nil {
		r.onPanic(task, rec, debug.Stack())
	}
}

func logPanic(task string, recovered any, stack []byte) {
	logger.Log.WithFields(logrus.Fields{
		"task":  task,
		"panic": recovered,
	}).Errorf("panic в фоновой задаче\n%s", stack)
}

// Default пишет panic в общий логгер процесса.
var Default = NewRunner(logPanic)

func Go(task string, fn func()) {
	Default.Go(task, fn)
}

func GoWithContext(ctx context.Context, task string, fn func(context.Context)) {
	Default.GoWithContext(ctx, task, fn)
}
