package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type DisputeRepository struct {
	store *Store
}

func NewDisputeRepository(store *Store) *DisputeRepository {
	return &DisputeRepository{store: store}
}

func (r *DisputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	return r.store.write(ctx, func() error {
		for _, d := range r.store.disputes {
			if d.ProjectID == dispute.ProjectID && d.IsActive() {
				return apperror.New(apperror.ErrCodeConflict, "по проекту уже открыт спор")
			}
		}
		cp := *dispute
		r.store.disputes[dispute.ID] = &cp
		return nil
	})
}

func (r *DisputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	var result *entity.Dispute
	r.store.read(func() {
		if d, ok := r.store.disputes[id]; ok {
			cp := *d
			result = &cp
		}
	})
	if result == nil {
		return nil, apperror.ErrDisputeNotFound
	}
	return result, nil
}

func (r *DisputeRepository) FindActiveByProject(ctx context.Context, projectID uuid.UUID) (*entity.Dispute, error) {
	var result *entity.Dispute
	r.store.read(func() {
		for _, d := range r.store.disputes {
			if d.ProjectID == projectID && d.IsActive() {
				cp := *d
				result = &cp
				return
			}
		}
	})
	return result, nil
}

func (r *DisputeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Dispute, error) {
	result := []entity.Dispute{}
	r.store.read(func() {
		for _, d := range r.store.disputes {
			if d.ProjectID == projectID {
				result = append(result, *d)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *DisputeRepository) Update(ctx context.Context, dispute *entity.Dispute) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.disputes[dispute.ID]; !ok {
			return apperror.ErrDisputeNotFound
		}
		cp := *dispute
		r.store.disputes[dispute.ID] = &cp
		return nil
	})
}

type PaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return r.store.write(ctx, func() error {
		cp := *payment
		r.store.payments[payment.ID] = &cp
		return nil
	})
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.find(func(p *entity.Payment) bool { return p.ID == id })
}

func (r *PaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Payment, error) {
	return r.find(func(p *entity.Payment) bool { return p.ExternalID != nil && *p.ExternalID == externalID })
}

func (r *PaymentRepository) find(match func(*entity.Payment) bool) (*entity.Payment, error) {
	var result *entity.Payment
	r.store.read(func() {
		for _, p := range r.store.payments {
			if match(p) {
				cp := *p
				result = &cp
				return
			}
		}
	})
	if result == nil {
		return nil, apperror.ErrPaymentNotFound
	}
	return result, nil
}

func (r *PaymentRepository) FindLatestByProject(ctx context.Context, projectID uuid.UUID) (*entity.Payment, error) {
	var result *entity.Payment
	r.store.read(func() {
		for _, p := range r.store.payments {
			if p.ProjectID != projectID {
				continue
			}
			if result == nil || p.CreatedAt.After(result.CreatedAt) {
				cp := *p
				result = &cp
			}
		}
	})
	return result, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.payments[payment.ID]; !ok {
			return apperror.ErrPaymentNotFound
		}
		cp := *payment
		r.store.payments[payment.ID] = &cp
		return nil
	})
}

type ApplicationRepository struct {
	store *Store
}

func NewApplicationRepository(store *Store) *ApplicationRepository {
	return &ApplicationRepository{store: store}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	return r.store.write(ctx, func() error {
		for _, a := range r.store.applications {
			if a.ProjectID == app.ProjectID && a.ProfessionalID == app.ProfessionalID &&
				a.Status != valueobject.ApplicationStatusWithdrawn {
				return apperror.New(apperror.ErrCodeConflict, "заявка на этот проект уже подана")
			}
		}
		cp := *app
		r.store.applications[app.ID] = &cp
		return nil
	})
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var result *entity.Application
	r.store.read(func() {
		if a, ok := r.store.applications[id]; ok {
			cp := *a
			result = &cp
		}
	})
	if result == nil {
		return nil, apperror.ErrApplicationNotFound
	}
	return result, nil
}

func (r *ApplicationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]entity.Application, error) {
	result := []entity.Application{}
	r.store.read(func() {
		for _, a := range r.store.applications {
			if a.ProjectID == projectID {
				result = append(result, *a)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *ApplicationRepository) Withdraw(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.store.write(ctx, func() error {
		a, ok := r.store.applications[id]
		if !ok {
			return apperror.ErrApplicationNotFound
		}
		if a.Status != valueobject.ApplicationStatusPending {
			return apperror.New(apperror.ErrCodePreconditionFailed, "отозвать можно только ожидающую заявку")
		}
		a.Status = valueobject.ApplicationStatusWithdrawn
		a.UpdatedAt = at
		return nil
	})
}

func (r *ApplicationRepository) ResolveForAssignment(ctx context.Context, projectID, professionalID uuid.UUID, at time.Time) (int64, int64, error) {
	var accepted, rejected int64
	err := r.store.write(ctx, func() error {
		for _, a := range r.store.applications {
			if a.ProjectID != projectID || a.Status != valueobject.ApplicationStatusPending {
				continue
			}
			if a.ProfessionalID == professionalID {
				a.Status = valueobject.ApplicationStatusAccepted
				accepted++
			} else {
				a.Status = valueobject.ApplicationStatusRejected
				rejected++
			}
			a.UpdatedAt = at
		}
		return nil
	})
	return accepted, rejected, err
}

type ArchiveRepository struct {
	store *Store
}

func NewArchiveRepository(store *Store) *ArchiveRepository {
	return &ArchiveRepository{store: store}
}

func (r *ArchiveRepository) Create(ctx context.Context, record *entity.ArchiveRecord) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.archives[record.ProjectID]; ok {
			return apperror.New(apperror.ErrCodeConflict, "проект уже в архиве")
		}
		r.store.archives[record.ProjectID] = cloneArchive(record)
		return nil
	})
}

func (r *ArchiveRepository) FindByProject(ctx context.Context, projectID uuid.UUID) (*entity.ArchiveRecord, error) {
	var result *entity.ArchiveRecord
	r.store.read(func() {
		if a, ok := r.store.archives[projectID]; ok {
			result = cloneArchive(a)
		}
	})
	if result == nil {
		return nil, apperror.ErrArchiveNotFound
	}
	return result, nil
}

func (r *ArchiveRepository) AppendNote(ctx context.Context, projectID uuid.UUID, note string, at time.Time) error {
	return r.store.write(ctx, func() error {
		a, ok := r.store.archives[projectID]
		if !ok {
			return apperror.ErrArchiveNotFound
		}
		a.Notes = append(a.Notes, note)
		a.UpdatedAt = at
		return nil
	})
}
