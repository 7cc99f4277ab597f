// Package returns implementa el motor de devoluciones y cambios: cuánto de
// una venta sigue siendo devolvible, la decisión write-off vs restock al
// aprobar, y el débito de la mercancía nueva en los cambios.
package returns

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

// maxSeqRetries reintentos ante colisión del returnNo.
const maxSeqRetries = 3

var returnReasons = map[string]bool{
	entity.ReturnReasonDamaged:         true,
	entity.ReturnReasonDefective:       true,
	entity.ReturnReasonExpired:         true,
	entity.ReturnReasonWrongSize:       true,
	entity.ReturnReasonWrongItem:       true,
	entity.ReturnReasonCustomerRequest: true,
	entity.ReturnReasonOther:           true,
}

// ReturnUseCase casos de uso de devoluciones/cambios.
type ReturnUseCase struct {
	uow             ports.UnitOfWork
	returnRepo      repository.ReturnRepository
	txRepo          repository.TransactionRepository
	varRepo         repository.VariantRepository
	notifier        ports.Notifier
	audit           ports.AuditTrail
	log             *logger.Logger
	privilegedRoles []string
	deadlineDays    int // 0 = sin plazo
	now             func() time.Time
}

// NewReturnUseCase construye el caso de uso. privilegedRoles son los roles
// que aprueban/rechazan (y cuyas solicitudes se auto-aprueban);
// deadlineDays es el plazo de devolución contado desde la venta.
func NewReturnUseCase(
	uow ports.UnitOfWork,
	returnRepo repository.ReturnRepository,
	txRepo repository.TransactionRepository,
	varRepo repository.VariantRepository,
	notifier ports.Notifier,
	audit ports.AuditTrail,
	log *logger.Logger,
	privilegedRoles []string,
	deadlineDays int,
) *ReturnUseCase {
	return &ReturnUseCase{
		uow:             uow,
		returnRepo:      returnRepo,
		txRepo:          txRepo,
		varRepo:         varRepo,
		notifier:        notifier,
		audit:           audit,
		log:             log,
		privilegedRoles: privilegedRoles,
		deadlineDays:    deadlineDays,
		now:             time.Now,
	}
}

// Create registra una devolución (REFUND) o cambio (EXCHANGE) sobre una venta
// COMPLETED. La cabecera de la venta se bloquea durante la validación: dos
// devoluciones concurrentes sobre la misma venta se serializan y el remanente
// devolvible (vendido − ya devuelto en PENDING+COMPLETED) nunca se excede.
// Si el actor es privilegiado la devolución nace COMPLETED y los efectos de
// stock se aplican en la misma transacción.
func (uc *ReturnUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	if in.TransactionID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if !returnReasons[in.Reason] {
		return nil, domain.ErrInvalidInput
	}
	switch in.ReturnType {
	case entity.ReturnTypeRefund:
		if len(in.ExchangeItems) > 0 {
			return nil, domain.ErrInvalidInput
		}
	case entity.ReturnTypeExchange:
		if len(in.ExchangeItems) == 0 {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if item.TransactionItemID == "" || item.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	}

	// Valorar la mercancía nueva al precio vigente de la variante.
	exchangeLines := make([]entity.ExchangeItem, 0, len(in.ExchangeItems))
	exchangeSubtotal := decimal.Zero
	for _, ex := range in.ExchangeItems {
		if ex.VariantID == "" || ex.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		variant, err := uc.varRepo.GetByID(ctx, ex.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, domain.ErrNotFound
		}
		if variant.CompanyID != actor.CompanyID {
			return nil, domain.ErrForbidden
		}
		line := entity.ExchangeItem{
			VariantID: ex.VariantID,
			Quantity:  ex.Quantity,
			UnitPrice: variant.Price,
			Subtotal:  variant.Price.Mul(decimal.NewFromInt(ex.Quantity)),
		}
		exchangeLines = append(exchangeLines, line)
		exchangeSubtotal = exchangeSubtotal.Add(line.Subtotal)
	}

	privileged := actor.HasAnyRole(uc.privilegedRoles...)
	override := in.ManagerOverride && privileged
	now := uc.now()

	var created *entity.Return
	var changes []ports.StockChange

	for attempt := 0; attempt < maxSeqRetries; attempt++ {
		ret := &entity.Return{
			ID:            uuid.New().String(),
			ReturnNo:      seqno.New(seqno.PrefixReturn, now),
			CompanyID:     actor.CompanyID,
			TransactionID: in.TransactionID,
			Reason:        in.Reason,
			ReturnType:    in.ReturnType,
			Status:        entity.ReturnStatusPending,
			Notes:         in.Notes,
			RequestedBy:   actor.UserID,
			CreatedAt:     now,
		}
		changes = changes[:0]

		err := uc.uow.Run(ctx, func(r ports.TxRepos) error {
			sale, err := r.Transactions.GetByIDForUpdate(ctx, in.TransactionID)
			if err != nil {
				return err
			}
			if sale == nil {
				return domain.ErrNotFound
			}
			if sale.CompanyID != actor.CompanyID {
				return domain.ErrForbidden
			}
			if sale.Status != entity.TransactionStatusCompleted {
				return domain.ErrConflict
			}
			if uc.deadlineDays > 0 && !override {
				deadline := sale.CreatedAt.AddDate(0, 0, uc.deadlineDays)
				if now.After(deadline) {
					return domain.ErrReturnWindowExpired
				}
			}
			ret.BranchID = sale.BranchID

			soldLines, err := r.Transactions.GetItems(ctx, sale.ID)
			if err != nil {
				return err
			}
			soldByID := make(map[string]entity.TransactionItem, len(soldLines))
			for _, line := range soldLines {
				soldByID[line.ID] = line
			}
			returned, err := r.Returns.SumReturnedByTransaction(ctx, sale.ID)
			if err != nil {
				return err
			}

			subtotal := decimal.Zero
			ret.Items = ret.Items[:0]
			for _, item := range in.Items {
				sold, ok := soldByID[item.TransactionItemID]
				if !ok {
					return domain.ErrNotFound
				}
				if returned[item.TransactionItemID]+item.Quantity > sold.Quantity {
					return domain.ErrExceedsReturnable
				}
				line := entity.ReturnItem{
					ID:                uuid.New().String(),
					ReturnID:          ret.ID,
					TransactionItemID: item.TransactionItemID,
					VariantID:         sold.VariantID,
					Quantity:          item.Quantity,
					UnitPrice:         sold.UnitPrice,
					Subtotal:          sold.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)),
				}
				ret.Items = append(ret.Items, line)
				subtotal = subtotal.Add(line.Subtotal)
			}

			if in.ReturnType == entity.ReturnTypeExchange {
				// diferencia > 0: el cliente paga; < 0: se le reembolsa
				ret.PriceDifference = exchangeSubtotal.Sub(subtotal)
				if ret.PriceDifference.IsNegative() {
					ret.RefundAmount = ret.PriceDifference.Neg()
				} else {
					ret.RefundAmount = decimal.Zero
				}
			} else {
				ret.RefundAmount = subtotal
			}

			if err := r.Returns.Create(ctx, ret); err != nil {
				return err
			}
			for i := range ret.Items {
				if err := r.Returns.CreateItem(ctx, &ret.Items[i]); err != nil {
					return err
				}
			}
			ret.ExchangeItems = ret.ExchangeItems[:0]
			for _, line := range exchangeLines {
				line.ID = uuid.New().String()
				line.ReturnID = ret.ID
				if err := r.Returns.CreateExchangeItem(ctx, &line); err != nil {
					return err
				}
				ret.ExchangeItems = append(ret.ExchangeItems, line)
			}

			if privileged {
				cs, err := uc.completeLocked(ctx, r, ret, actor, now)
				if err != nil {
					return err
				}
				changes = cs
			}
			return nil
		})
		if errors.Is(err, domain.ErrDuplicate) {
			continue // returnNo colisionó
		}
		if err != nil {
			return nil, err
		}
		created = ret
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
		Action:      "return_create",
		EntityType:  "return",
		EntityID:    created.ID,
		Description: "devolución " + created.ReturnNo,
		Metadata:    map[string]any{"type": created.ReturnType, "status": created.Status, "refund": created.RefundAmount.String()},
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toReturnResponse(created), nil
}

// Approve aprueba una devolución PENDING y aplica sus efectos de stock en una
// sola transacción. Motivos de write-off (dañado, defectuoso, vencido) NO
// reingresan stock: documentan la merma con un ajuste negativo; el resto
// reingresa las cantidades bajo bloqueo de fila. En los cambios, además, se
// debita la mercancía nueva (si falta stock la aprobación entera falla y la
// devolución sigue PENDING).
func (uc *ReturnUseCase) Approve(ctx context.Context, actor entity.Actor, id string, in dto.ProcessReturnRequest) (*dto.ReturnResponse, error) {
	return uc.process(ctx, actor, id, in.Notes, true)
}

// Reject rechaza una devolución PENDING sin efecto alguno sobre el stock.
func (uc *ReturnUseCase) Reject(ctx context.Context, actor entity.Actor, id string, in dto.ProcessReturnRequest) (*dto.ReturnResponse, error) {
	return uc.process(ctx, actor, id, in.Notes, false)
}

func (uc *ReturnUseCase) process(ctx context.Context, actor entity.Actor, id, notes string, approve bool) (*dto.ReturnResponse, error) {
	if !actor.HasAnyRole(uc.privilegedRoles...) {
		return nil, domain.ErrForbidden
	}
	now := uc.now()
	var processed *entity.Return
	var changes []ports.StockChange

	err := uc.uow.Run(ctx, func(r ports.TxRepos) error {
		ret, err := r.Returns.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ret == nil {
			return domain.ErrNotFound
		}
		if ret.CompanyID != actor.CompanyID {
			return domain.ErrForbidden
		}
		if ret.Status != entity.ReturnStatusPending {
			return domain.ErrAlreadyProcessed
		}
		ret.Items, err = r.Returns.GetItems(ctx, ret.ID)
		if err != nil {
			return err
		}
		ret.ExchangeItems, err = r.Returns.GetExchangeItems(ctx, ret.ID)
		if err != nil {
			return err
		}
		if notes != "" {
			ret.Notes = notes
		}

		if approve {
			changes, err = uc.completeLocked(ctx, r, ret, actor, now)
			if err != nil {
				return err
			}
			processed = ret
			return nil
		}
		ret.Status = entity.ReturnStatusRejected
		ret.ProcessedBy = actor.UserID
		ret.ProcessedAt = &now
		if err := r.Returns.UpdateStatus(ctx, ret); err != nil {
			return err
		}
		processed = ret
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		uc.publish(ctx, c)
	}
	action := "return_reject"
	if approve {
		action = "return_approve"
	}
	uc.audit.Record(entity.AuditLog{
		CompanyID:   actor.CompanyID,
		Action:      action,
		EntityType:  "return",
		EntityID:    id,
		Description: "devolución " + processed.ReturnNo,
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toReturnResponse(processed), nil
}

// completeLocked aplica los efectos de stock de la aprobación y marca la
// devolución COMPLETED. Debe ejecutarse dentro de la unidad de trabajo, con
// la cabecera de la devolución ya bloqueada.
func (uc *ReturnUseCase) completeLocked(ctx context.Context, r ports.TxRepos, ret *entity.Return, actor entity.Actor, now time.Time) ([]ports.StockChange, error) {
	var changes []ports.StockChange

	if entity.IsWriteOffReason(ret.Reason) {
		// Write-off: el stock no cambia; queda un ajuste negativo que
		// documenta la merma en el historial.
		for _, item := range ret.Items {
			stock, err := r.Stock.GetForUpdate(ctx, item.VariantID, ret.BranchID)
			if err != nil {
				return nil, err
			}
			current := int64(0)
			if stock != nil {
				current = stock.Quantity
			}
			adj := &entity.StockAdjustment{
				ID:          uuid.New().String(),
				CompanyID:   ret.CompanyID,
				VariantID:   item.VariantID,
				BranchID:    ret.BranchID,
				PreviousQty: current,
				NewQty:      current,
				Difference:  -item.Quantity,
				Reason:      entity.AdjustmentReasonDamaged,
				ActorID:     actor.UserID,
				Notes:       "merma por devolución " + ret.ReturnNo,
				CreatedAt:   now,
			}
			if err := r.Adjustments.Create(ctx, adj); err != nil {
				return nil, err
			}
			changes = append(changes, ports.StockChange{
				CompanyID:   ret.CompanyID,
				BranchID:    ret.BranchID,
				VariantID:   item.VariantID,
				PreviousQty: current,
				NewQty:      current,
				Operation:   ports.StockOpWriteOff,
				At:          now,
			})
		}
	} else {
		for _, item := range ret.Items {
			stock, err := r.Stock.GetForUpdate(ctx, item.VariantID, ret.BranchID)
			if err != nil {
				return nil, err
			}
			if stock == nil {
				stock = &entity.StockRecord{VariantID: item.VariantID, BranchID: ret.BranchID, Quantity: 0, UnitPrice: item.UnitPrice}
			}
			previous := stock.Quantity
			stock.Quantity += item.Quantity
			stock.UpdatedAt = now
			if err := r.Stock.Upsert(ctx, stock); err != nil {
				return nil, err
			}
			changes = append(changes, ports.StockChange{
				CompanyID:   ret.CompanyID,
				BranchID:    ret.BranchID,
				VariantID:   item.VariantID,
				PreviousQty: previous,
				NewQty:      stock.Quantity,
				Operation:   ports.StockOpReturnRestock,
				At:          now,
			})
		}
	}

	// Cambios: debitar la mercancía nueva que se lleva el cliente.
	for _, ex := range ret.ExchangeItems {
		stock, err := r.Stock.GetForUpdate(ctx, ex.VariantID, ret.BranchID)
		if err != nil {
			return nil, err
		}
		available := int64(0)
		if stock != nil {
			available = stock.Quantity
		}
		if available < ex.Quantity {
			return nil, &domain.InsufficientStockError{
				VariantID: ex.VariantID,
				BranchID:  ret.BranchID,
				Requested: ex.Quantity,
				Available: available,
			}
		}
		previous := stock.Quantity
		stock.Quantity -= ex.Quantity
		stock.UpdatedAt = now
		if err := r.Stock.Upsert(ctx, stock); err != nil {
			return nil, err
		}
		changes = append(changes, ports.StockChange{
			CompanyID:   ret.CompanyID,
			BranchID:    ret.BranchID,
			VariantID:   ex.VariantID,
			PreviousQty: previous,
			NewQty:      stock.Quantity,
			Operation:   ports.StockOpExchangeDebit,
			At:          now,
		})
	}

	ret.Status = entity.ReturnStatusCompleted
	ret.ProcessedBy = actor.UserID
	ret.ProcessedAt = &now
	if err := r.Returns.UpdateStatus(ctx, ret); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetByID devuelve una devolución con sus líneas.
func (uc *ReturnUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.ReturnResponse, error) {
	ret, err := uc.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	if ret.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	ret.Items, err = uc.returnRepo.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	ret.ExchangeItems, err = uc.returnRepo.GetExchangeItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReturnResponse(ret), nil
}

// List lista devoluciones de la empresa, opcionalmente filtradas por estado.
func (uc *ReturnUseCase) List(ctx context.Context, actor entity.Actor, status string, page dto.PageRequest) ([]*dto.ReturnResponse, error) {
	page.DefaultPage()
	list, err := uc.returnRepo.ListByCompany(ctx, actor.CompanyID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ReturnResponse, 0, len(list))
	for _, ret := range list {
		out = append(out, toReturnResponse(ret))
	}
	return out, nil
}

func (uc *ReturnUseCase) publish(ctx context.Context, change ports.StockChange) {
	if err := uc.notifier.StockChanged(ctx, change); err != nil {
		uc.log.Warn().Err(err).
			Str("variant_id", change.VariantID).
			Str("branch_id", change.BranchID).
			Msg("no se pudo publicar el cambio de stock")
	}
}

func toReturnResponse(ret *entity.Return) *dto.ReturnResponse {
	resp := &dto.ReturnResponse{
		ID:              ret.ID,
		ReturnNo:        ret.ReturnNo,
		TransactionID:   ret.TransactionID,
		BranchID:        ret.BranchID,
		Reason:          ret.Reason,
		ReturnType:      ret.ReturnType,
		Status:          ret.Status,
		RefundAmount:    ret.RefundAmount,
		PriceDifference: ret.PriceDifference,
		Notes:           ret.Notes,
		RequestedBy:     ret.RequestedBy,
		ProcessedBy:     ret.ProcessedBy,
		Items:           make([]dto.ReturnItemResponse, 0, len(ret.Items)),
		CreatedAt:       ret.CreatedAt,
		ProcessedAt:     ret.ProcessedAt,
	}
	for _, item := range ret.Items {
		resp.Items = append(resp.Items, dto.ReturnItemResponse{
			ID:                item.ID,
			TransactionItemID: item.TransactionItemID,
			VariantID:         item.VariantID,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			Subtotal:          item.Subtotal,
		})
	}
	for _, ex := range ret.ExchangeItems {
		resp.ExchangeItems = append(resp.ExchangeItems, dto.ExchangeItemResponse{
			ID:        ex.ID,
			VariantID: ex.VariantID,
			Quantity:  ex.Quantity,
			UnitPrice: ex.UnitPrice,
			Subtotal:  ex.Subtotal,
		})
	}
	return resp
}
