// Package transfer implementa el workflow de transferencias de stock entre
// sucursales: PENDING → COMPLETED | CANCELLED, con auto-aprobación para
// roles privilegiados. El stock solo se mueve en el instante en que la
// transferencia entra a COMPLETED, y exactamente una vez.
package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
	"github.com/tu-usuario/pos-backoffice/pkg/seqno"
)

// maxSeqRetries reintentos ante colisión del transferNo (índice único).
const maxSeqRetries = 3

// TransferUseCase casos de uso de transferencias.
type TransferUseCase struct {
	uow              ports.UnitOfWork
	transferRepo     repository.TransferRepository
	branchRepo       repository.BranchRepository
	varRepo          repository.VariantRepository
	stockRepo        repository.StockRepository
	notifier         ports.Notifier
	audit            ports.AuditTrail
	log              *logger.Logger
	autoApproveRoles []string
	now              func() time.Time
}

// NewTransferUseCase construye el caso de uso. autoApproveRoles son los
// roles que completan la transferencia en el mismo paso de la solicitud.
func NewTransferUseCase(
	uow ports.UnitOfWork,
	transferRepo repository.TransferRepository,
	branchRepo repository.BranchRepository,
	varRepo repository.VariantRepository,
	stockRepo repository.StockRepository,
	notifier ports.Notifier,
	audit ports.AuditTrail,
	log *logger.Logger,
	autoApproveRoles []string,
) *TransferUseCase {
	return &TransferUseCase{
		uow:              uow,
		transferRepo:     transferRepo,
		branchRepo:       branchRepo,
		varRepo:          varRepo,
		stockRepo:        stockRepo,
		notifier:         notifier,
		audit:            audit,
		log:              log,
		autoApproveRoles: autoApproveRoles,
		now:              time.Now,
	}
}

// Request crea una solicitud de transferencia. Valida que el origen tenga
// stock suficiente; si el actor es privilegiado, la transferencia nace
// COMPLETED y el stock se mueve atómicamente en el mismo paso, con el mismo
// check-and-move bajo bloqueo de fila que usa Approve (la validación inicial
// de lectura no basta: el stock puede cambiar entre la lectura y el commit).
func (uc *TransferUseCase) Request(ctx context.Context, actor entity.Actor, in dto.RequestTransferRequest) (*dto.TransferResponse, error) {
	if in.VariantID == "" || in.FromBranchID == "" || in.ToBranchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.FromBranchID == in.ToBranchID || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkScope(ctx, actor, in.VariantID, in.FromBranchID, in.ToBranchID); err != nil {
		return nil, err
	}

	// Pre-chequeo informativo de disponibilidad (fuera de la tx, solo lectura).
	current, err := uc.stockRepo.Get(ctx, in.VariantID, in.FromBranchID)
	if err != nil {
		return nil, err
	}
	available := int64(0)
	if current != nil {
		available = current.Quantity
	}
	if available < in.Quantity {
		return nil, &domain.InsufficientStockError{
			VariantID: in.VariantID,
			BranchID:  in.FromBranchID,
			Requested: in.Quantity,
			Available: available,
		}
	}

	autoApprove := actor.HasAnyRole(uc.autoApproveRoles...)
	now := uc.now()
	var created *entity.StockTransfer
	var changes []ports.StockChange

	for attempt := 0; attempt < maxSeqRetries; attempt++ {
		t := &entity.StockTransfer{
			ID:           uuid.New().String(),
			TransferNo:   seqno.New(seqno.PrefixTransfer, now),
			CompanyID:    actor.CompanyID,
			VariantID:    in.VariantID,
			FromBranchID: in.FromBranchID,
			ToBranchID:   in.ToBranchID,
			Quantity:     in.Quantity,
			Status:       entity.TransferStatusPending,
			RequestedBy:  actor.UserID,
			Notes:        in.Notes,
			CreatedAt:    now,
		}
		changes = changes[:0]

		err = uc.uow.Run(ctx, func(r ports.TxRepos) error {
			if err := r.Transfers.Create(ctx, t); err != nil {
				return err
			}
			if !autoApprove {
				return nil
			}
			cs, err := uc.completeLocked(ctx, r, t, actor, now)
			if err != nil {
				return err
			}
			changes = append(changes, cs...)
			return nil
		})
		if errors.Is(err, domain.ErrDuplicate) {
			continue // transferNo colisionó: regenerar y reintentar
		}
		if err != nil {
			return nil, err
		}
		created = t
		break
	}
	if created == nil {
		return nil, domain.ErrConflict
	}

	for _, c := range changes {
		uc.publish(ctx, c)
	}
	uc.audit.Record(entity.AuditLog{
		CompanyID:   actor.CompanyID,
		Action:      "transfer_request",
		EntityType:  "stock_transfer",
		EntityID:    created.ID,
		Description: "solicitud de transferencia " + created.TransferNo,
		Metadata:    map[string]any{"quantity": created.Quantity, "status": created.Status},
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toResponse(created), nil
}

// Approve completa una transferencia PENDING: re-valida el stock de origen
// bajo bloqueo (pudo cambiar desde la solicitud), decrementa origen,
// incrementa/crea destino y cambia el estado, todo en una transacción.
func (uc *TransferUseCase) Approve(ctx context.Context, actor entity.Actor, id string) (*dto.TransferResponse, error) {
	if !actor.HasAnyRole(uc.autoApproveRoles...) {
		return nil, domain.ErrForbidden
	}

	now := uc.now()
	var processed *entity.StockTransfer
	var changes []ports.StockChange

	err := uc.uow.Run(ctx, func(r ports.TxRepos) error {
		t, err := r.Transfers.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.CompanyID != actor.CompanyID {
			return domain.ErrForbidden
		}
		if t.Status != entity.TransferStatusPending {
			return domain.ErrAlreadyProcessed
		}
		cs, err := uc.completeLocked(ctx, r, t, actor, now)
		if err != nil {
			return err
		}
		changes = cs
		processed = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		uc.publish(ctx, c)
	}
	uc.audit.Record(entity.AuditLog{
		CompanyID:   actor.CompanyID,
		Action:      "transfer_approve",
		EntityType:  "stock_transfer",
		EntityID:    processed.ID,
		Description: "transferencia aprobada " + processed.TransferNo,
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toResponse(processed), nil
}

// Reject cancela una transferencia PENDING sin efecto sobre el stock. La
// puede ejecutar un rol privilegiado, o el solicitante sobre su propia
// solicitud todavía pendiente.
func (uc *TransferUseCase) Reject(ctx context.Context, actor entity.Actor, id, notes string) (*dto.TransferResponse, error) {
	now := uc.now()
	var processed *entity.StockTransfer

	err := uc.uow.Run(ctx, func(r ports.TxRepos) error {
		t, err := r.Transfers.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.CompanyID != actor.CompanyID {
			return domain.ErrForbidden
		}
		if !actor.HasAnyRole(uc.autoApproveRoles...) && t.RequestedBy != actor.UserID {
			return domain.ErrForbidden
		}
		if t.Status != entity.TransferStatusPending {
			return domain.ErrAlreadyProcessed
		}
		t.Status = entity.TransferStatusCancelled
		t.ProcessedBy = actor.UserID
		t.ProcessedAt = &now
		if notes != "" {
			t.Notes = notes
		}
		if err := r.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		processed = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(entity.AuditLog{
		CompanyID:   actor.CompanyID,
		Action:      "transfer_reject",
		EntityType:  "stock_transfer",
		EntityID:    processed.ID,
		Description: "transferencia cancelada " + processed.TransferNo,
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toResponse(processed), nil
}

// GetByID devuelve una transferencia de la empresa del actor.
func (uc *TransferUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.TransferResponse, error) {
	t, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if t.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	return toResponse(t), nil
}

// List lista transferencias de la empresa, opcionalmente por estado.
func (uc *TransferUseCase) List(ctx context.Context, actor entity.Actor, status string, page dto.PageRequest) ([]*dto.TransferResponse, error) {
	page.DefaultPage()
	list, err := uc.transferRepo.ListByCompany(ctx, actor.CompanyID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toResponse(t))
	}
	return out, nil
}

// completeLocked mueve el stock de una transferencia dentro de la tx del
// caller: bloquea la fila de origen, re-verifica disponibilidad, resta en
// origen, suma en destino (creando la fila si no existe) y marca COMPLETED.
func (uc *TransferUseCase) completeLocked(ctx context.Context, r ports.TxRepos, t *entity.StockTransfer, actor entity.Actor, now time.Time) ([]ports.StockChange, error) {
	origin, err := r.Stock.GetForUpdate(ctx, t.VariantID, t.FromBranchID)
	if err != nil {
		return nil, err
	}
	available := int64(0)
	if origin != nil {
		available = origin.Quantity
	}
	if available < t.Quantity {
		return nil, &domain.InsufficientStockError{
			VariantID: t.VariantID,
			BranchID:  t.FromBranchID,
			Requested: t.Quantity,
			Available: available,
		}
	}

	dest, err := r.Stock.GetForUpdate(ctx, t.VariantID, t.ToBranchID)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		dest = &entity.StockRecord{VariantID: t.VariantID, BranchID: t.ToBranchID, Quantity: 0, UnitPrice: origin.UnitPrice}
	}
	if dest.UnitPrice.Equal(decimal.Zero) {
		dest.UnitPrice = origin.UnitPrice
	}

	prevOrigin := origin.Quantity
	prevDest := dest.Quantity
	origin.Quantity -= t.Quantity
	dest.Quantity += t.Quantity
	origin.UpdatedAt = now
	dest.UpdatedAt = now
	if err := r.Stock.Upsert(ctx, origin); err != nil {
		return nil, err
	}
	if err := r.Stock.Upsert(ctx, dest); err != nil {
		return nil, err
	}

	t.Status = entity.TransferStatusCompleted
	t.ProcessedBy = actor.UserID
	t.ProcessedAt = &now
	if err := r.Transfers.UpdateStatus(ctx, t); err != nil {
		return nil, err
	}

	return []ports.StockChange{
		{
			CompanyID:   t.CompanyID,
			BranchID:    t.FromBranchID,
			VariantID:   t.VariantID,
			PreviousQty: prevOrigin,
			NewQty:      origin.Quantity,
			Operation:   ports.StockOpTransfer,
			At:          now,
		},
		{
			CompanyID:   t.CompanyID,
			BranchID:    t.ToBranchID,
			VariantID:   t.VariantID,
			PreviousQty: prevDest,
			NewQty:      dest.Quantity,
			Operation:   ports.StockOpTransfer,
			At:          now,
		},
	}, nil
}

func (uc *TransferUseCase) checkScope(ctx context.Context, actor entity.Actor, variantID string, branchIDs ...string) error {
	variant, err := uc.varRepo.GetByID(ctx, variantID)
	if err != nil {
		return err
	}
	if variant == nil {
		return domain.ErrNotFound
	}
	if variant.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
	for _, id := range branchIDs {
		branch, err := uc.branchRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.ErrNotFound
		}
		if branch.CompanyID != actor.CompanyID {
			return domain.ErrForbidden
		}
	}
	return nil
}

func (uc *TransferUseCase) publish(ctx context.Context, change ports.StockChange) {
	if err := uc.notifier.StockChanged(ctx, change); err != nil {
		uc.log.Warn().Err(err).
			Str("variant_id", change.VariantID).
			Str("branch_id", change.BranchID).
			Msg("no se pudo publicar el cambio de stock")
	}
}

func toResponse(t *entity.StockTransfer) *dto.TransferResponse {
	return &dto.TransferResponse{
		ID:           t.ID,
		TransferNo:   t.TransferNo,
		VariantID:    t.VariantID,
		FromBranchID: t.FromBranchID,
		ToBranchID:   t.ToBranchID,
		Quantity:     t.Quantity,
		Status:       t.Status,
		RequestedBy:  t.RequestedBy,
		ProcessedBy:  t.ProcessedBy,
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
		ProcessedAt:  t.ProcessedAt,
	}
}
