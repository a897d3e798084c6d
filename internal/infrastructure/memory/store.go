// Package memory хранит данные в памяти процесса для режима разработки и тестов.
// Транзакции сериализуются и откатываются восстановлением снимка.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
)

type txKey struct{}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	projects     map[uuid.UUID]*entity.Project
	transitions  map[uuid.UUID][]entity.TransitionRecord
	disputes     map[uuid.UUID]*entity.Dispute
	payments     map[uuid.UUID]*entity.Payment
	applications map[uuid.UUID]*entity.Application
	archives     map[uuid.UUID]*entity.ArchiveRecord
}

func NewStore() *Store {
	return &Store{
		projects:     make(map[uuid.UUID]*entity.Project),
		transitions:  make(map[uuid.UUID][]entity.TransitionRecord),
		disputes:     make(map[uuid.UUID]*entity.Dispute),
		payments:     make(map[uuid.UUID]*entity.Payment),
		applications: make(map[uuid.UUID]*entity.Application),
		archives:     make(map[uuid.UUID]*entity.ArchiveRecord),
	}
}

// WithinTransaction выполняет fn эксклюзивно. При ошибке состояние восстанавливается.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.snapshot()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// write выполняет изменение; вне транзакции оборачивает его в собственную.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !s.inTx(ctx) {
		return s.WithinTransaction(ctx, func(txCtx context.Context) error {
			return s.write(txCtx, fn)
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

type snapshot struct {
	projects     map[uuid.UUID]*entity.Project
	transitions  map[uuid.UUID][]entity.TransitionRecord
	disputes     map[uuid.UUID]*entity.Dispute
	payments     map[uuid.UUID]*entity.Payment
	applications map[uuid.UUID]*entity.Application
	archives     map[uuid.UUID]*entity.ArchiveRecord
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		projects:     make(map[uuid.UUID]*entity.Project, len(s.projects)),
		transitions:  make(map[uuid.UUID][]entity.TransitionRecord, len(s.transitions)),
		disputes:     make(map[uuid.UUID]*entity.Dispute, len(s.disputes)),
		payments:     make(map[uuid.UUID]*entity.Payment, len(s.payments)),
		applications: make(map[uuid.UUID]*entity.Application, len(s.applications)),
		archives:     make(map[uuid.UUID]*entity.ArchiveRecord, len(s.archives)),
	}
	for id, p := range s.projects {
		snap.projects[id] = p.Clone()
	}
	for id, records := range s.transitions {
		snap.transitions[id] = append([]entity.TransitionRecord(nil), records...)
	}
	for id, d := range s.disputes {
		cp := *d
		snap.disputes[id] = &cp
	}
	for id, p := range s.payments {
		cp := *p
		snap.payments[id] = &cp
	}
	for id, a := range s.applications {
		cp := *a
		snap.applications[id] = &cp
	}
	for id, a := range s.archives {
		snap.archives[id] = cloneArchive(a)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.projects = snap.projects
	s.transitions = snap.transitions
	s.disputes = snap.disputes
	s.payments = snap.payments
	s.applications = snap.applications
	s.archives = snap.archives
}

func cloneArchive(a *entity.ArchiveRecord) *entity.ArchiveRecord {
	cp := *a
	cp.Notes = append([]string{}, a.Notes...)
	return &cp
}
