// Package stock implementa el Stock Ledger y el Adjustment Recorder: la
// primitiva atómica leer-calcular-escribir sobre (variante, sucursal) y el
// historial append-only que explica cada mutación manual.
package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

// adjustmentReasons tabla única motivo-string → enum. El Adjustment Recorder
// es el dueño; los handlers no duplican este mapeo.
var adjustmentReasons = map[string]string{
	"STOCK_OPNAME":    entity.AdjustmentReasonStockOpname,
	"DAMAGED":         entity.AdjustmentReasonDamaged,
	"LOST":            entity.AdjustmentReasonLost,
	"SUPPLIER_RETURN": entity.AdjustmentReasonSupplierReturn,
	"INPUT_ERROR":     entity.AdjustmentReasonInputError,
	"OTHER":           entity.AdjustmentReasonOther,
}

// ParseAdjustmentReason valida un motivo crudo. Vacío es válido (motivo nulo).
func ParseAdjustmentReason(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	reason, ok := adjustmentReasons[raw]
	if !ok {
		return "", domain.ErrInvalidInput
	}
	return reason, nil
}

// StockUseCase casos de uso del ledger: consulta y ajuste manual con fila de
// auditoría emparejada en la misma transacción.
type StockUseCase struct {
	uow        ports.UnitOfWork
	stockRepo  repository.StockRepository
	adjRepo    repository.AdjustmentRepository
	branchRepo repository.BranchRepository
	varRepo    repository.VariantRepository
	notifier   ports.Notifier
	audit      ports.AuditTrail
	log        *logger.Logger
	now        func() time.Time
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	uow ports.UnitOfWork,
	stockRepo repository.StockRepository,
	adjRepo repository.AdjustmentRepository,
	branchRepo repository.BranchRepository,
	varRepo repository.VariantRepository,
	notifier ports.Notifier,
	audit ports.AuditTrail,
	log *logger.Logger,
) *StockUseCase {
	return &StockUseCase{
		uow:        uow,
		stockRepo:  stockRepo,
		adjRepo:    adjRepo,
		branchRepo: branchRepo,
		varRepo:    varRepo,
		notifier:   notifier,
		audit:      audit,
		log:        log,
		now:        time.Now,
	}
}

// checkScope valida que sucursal y variante existan y pertenezcan a la
// empresa del actor. Ninguna consulta cruza tenants.
func (uc *StockUseCase) checkScope(ctx context.Context, actor entity.Actor, variantID, branchID string) error {
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return domain.ErrNotFound
	}
	if branch.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
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
	return nil
}

// GetStock devuelve el stock actual; domain.ErrNotFound si la fila no existe.
func (uc *StockUseCase) GetStock(ctx context.Context, actor entity.Actor, variantID, branchID string) (*dto.StockResponse, error) {
	if variantID == "" || branchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkScope(ctx, actor, variantID, branchID); err != nil {
		return nil, err
	}
	s, err := uc.stockRepo.Get(ctx, variantID, branchID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return toStockResponse(s), nil
}

// ListByBranch lista el stock de una sucursal.
func (uc *StockUseCase) ListByBranch(ctx context.Context, actor entity.Actor, branchID string, page dto.PageRequest) ([]*dto.StockResponse, error) {
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	if branch.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()
	records, err := uc.stockRepo.ListByBranch(ctx, branchID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.StockResponse, 0, len(records))
	for _, s := range records {
		out = append(out, toStockResponse(s))
	}
	return out, nil
}

// Adjust aplica un ajuste manual: bloquea la fila (SELECT FOR UPDATE), calcula
// la nueva cantidad (Delta relativo o NewQuantity absoluto), falla con
// ErrInsufficientStock si quedaría negativa y escribe la fila de ajuste en la
// MISMA transacción: si el recorder no puede escribir, el ajuste entero se
// revierte. La fila de stock se crea perezosamente en la primera escritura.
func (uc *StockUseCase) Adjust(ctx context.Context, actor entity.Actor, in dto.AdjustStockRequest) (*dto.StockResponse, error) {
	if in.VariantID == "" || in.BranchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Delta == nil && in.NewQuantity == nil {
		return nil, domain.ErrInvalidInput
	}
	if in.NewQuantity != nil && *in.NewQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	reason, err := ParseAdjustmentReason(in.Reason)
	if err != nil {
		return nil, err
	}
	if err := uc.checkScope(ctx, actor, in.VariantID, in.BranchID); err != nil {
		return nil, err
	}

	now := uc.now()
	var result *entity.StockRecord
	var change ports.StockChange

	err = uc.uow.Run(ctx, func(r ports.TxRepos) error {
		current, err := r.Stock.GetForUpdate(ctx, in.VariantID, in.BranchID)
		if err != nil {
			return err
		}
		if current == nil {
			current = &entity.StockRecord{VariantID: in.VariantID, BranchID: in.BranchID, Quantity: 0, UnitPrice: decimal.Zero}
		}
		previous := current.Quantity

		newQty := previous
		if in.NewQuantity != nil {
			newQty = *in.NewQuantity
		} else {
			newQty = previous + *in.Delta
		}
		if newQty < 0 {
			return &domain.InsufficientStockError{
				VariantID: in.VariantID,
				BranchID:  in.BranchID,
				Requested: previous - newQty,
				Available: previous,
			}
		}

		current.Quantity = newQty
		if in.UnitPrice != nil {
			current.UnitPrice = *in.UnitPrice
		}
		current.UpdatedAt = now
		if err := r.Stock.Upsert(ctx, current); err != nil {
			return err
		}

		adj := &entity.StockAdjustment{
			ID:          uuid.New().String(),
			CompanyID:   actor.CompanyID,
			VariantID:   in.VariantID,
			BranchID:    in.BranchID,
			PreviousQty: previous,
			NewQty:      newQty,
			Difference:  newQty - previous,
			Reason:      reason,
			ActorID:     actor.UserID,
			Notes:       in.Notes,
			CreatedAt:   now,
		}
		if err := r.Adjustments.Create(ctx, adj); err != nil {
			return err
		}

		result = current
		change = ports.StockChange{
			CompanyID:   actor.CompanyID,
			BranchID:    in.BranchID,
			VariantID:   in.VariantID,
			PreviousQty: previous,
			NewQty:      newQty,
			Operation:   ports.StockOpAdjustment,
			At:          now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, change)
	uc.audit.Record(entity.AuditLog{
		CompanyID:   actor.CompanyID,
		Action:      "stock_adjust",
		EntityType:  "stock",
		EntityID:    in.VariantID + "/" + in.BranchID,
		Description: "ajuste manual de stock",
		Metadata:    map[string]any{"previous": change.PreviousQty, "new": change.NewQty, "reason": reason},
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toStockResponse(result), nil
}

// ListAdjustments historial de ajustes de una variante en una sucursal.
func (uc *StockUseCase) ListAdjustments(ctx context.Context, actor entity.Actor, variantID, branchID string, page dto.PageRequest) ([]*dto.AdjustmentResponse, error) {
	if err := uc.checkScope(ctx, actor, variantID, branchID); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.adjRepo.ListByStock(ctx, variantID, branchID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.AdjustmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAdjustmentResponse(a))
	}
	return out, nil
}

// publish emite el evento de cambio de stock; el fallo se registra y se traga.
func (uc *StockUseCase) publish(ctx context.Context, change ports.StockChange) {
	if err := uc.notifier.StockChanged(ctx, change); err != nil {
		uc.log.Warn().Err(err).
			Str("variant_id", change.VariantID).
			Str("branch_id", change.BranchID).
			Msg("no se pudo publicar el cambio de stock")
	}
}

func toStockResponse(s *entity.StockRecord) *dto.StockResponse {
	return &dto.StockResponse{
		VariantID: s.VariantID,
		BranchID:  s.BranchID,
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		UpdatedAt: s.UpdatedAt,
	}
}

func toAdjustmentResponse(a *entity.StockAdjustment) *dto.AdjustmentResponse {
	return &dto.AdjustmentResponse{
		ID:          a.ID,
		VariantID:   a.VariantID,
		BranchID:    a.BranchID,
		PreviousQty: a.PreviousQty,
		NewQty:      a.NewQty,
		Difference:  a.Difference,
		Reason:      a.Reason,
		ActorID:     a.ActorID,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
	}
}
