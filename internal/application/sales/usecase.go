// Package sales implementa el motor de transacciones de venta: creación
// atómica (venta + ítems + débitos de stock), pago dividido, numeración
// legible con reintento ante colisión, cancelación con reversa de créditos
// y el replay idempotente de lotes offline.
package sales

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

// splitPaymentTolerance diferencia absoluta admitida entre la suma de los dos
// pagos y el total. Fija en 0.01 sin importar la magnitud de la moneda; se
// preserva el comportamiento histórico aunque para totales grandes pueda ser
// estricta de más.
var splitPaymentTolerance = decimal.NewFromFloat(0.01)

// maxSeqRetries reintentos ante colisión del transactionNo (índice único).
const maxSeqRetries = 3

// métodos de pago válidos.
var paymentMethods = map[string]bool{
	entity.PaymentMethodCash:     true,
	entity.PaymentMethodCard:     true,
	entity.PaymentMethodTransfer: true,
	entity.PaymentMethodEWallet:  true,
}

// SalesUseCase casos de uso de ventas.
type SalesUseCase struct {
	uow         ports.UnitOfWork
	txRepo      repository.TransactionRepository
	branchRepo  repository.BranchRepository
	varRepo     repository.VariantRepository
	companyRepo repository.CompanyRepository
	receipts    ReceiptGenerator
	notifier    ports.Notifier
	audit       ports.AuditTrail
	log         *logger.Logger
	now         func() time.Time
	suffix      func() int
}

// NewSalesUseCase construye el caso de uso.
func NewSalesUseCase(
	uow ports.UnitOfWork,
	txRepo repository.TransactionRepository,
	branchRepo repository.BranchRepository,
	varRepo repository.VariantRepository,
	companyRepo repository.CompanyRepository,
	receipts ReceiptGenerator,
	notifier ports.Notifier,
	audit ports.AuditTrail,
	log *logger.Logger,
) *SalesUseCase {
	return &SalesUseCase{
		uow:         uow,
		txRepo:      txRepo,
		branchRepo:  branchRepo,
		varRepo:     varRepo,
		companyRepo: companyRepo,
		receipts:    receipts,
		notifier:    notifier,
		audit:       audit,
		log:         log,
		now:         time.Now,
		suffix:      seqno.Suffix,
	}
}

// Create crea una venta: valida ítems y pago, y en una sola transacción
// debita el stock de cada línea bajo bloqueo de fila y persiste la venta con
// sus ítems. El débito ES el rastro de auditoría (no se escribe
// StockAdjustment por ventas).
func (uc *SalesUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	return uc.create(ctx, actor, in, "", "", uc.now())
}

// create es el camino compartido con el replay offline: id, number y
// occurredAt vienen del cliente cuando la venta fue generada offline.
func (uc *SalesUseCase) create(ctx context.Context, actor entity.Actor, in dto.CreateTransactionRequest, id, number string, occurredAt time.Time) (*dto.TransactionResponse, error) {
	if in.BranchID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Discount.IsNegative() || in.Tax.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if !paymentMethods[in.PaymentMethod] {
		return nil, domain.ErrInvalidInput
	}
	split := in.SecondPaymentMethod != ""
	if split && !paymentMethods[in.SecondPaymentMethod] {
		return nil, domain.ErrInvalidInput
	}

	branch, err := uc.branchRepo.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	if branch.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}

	// Validar variantes y resolver precios (fuera de la tx, solo lectura).
	variantsByID := make(map[string]*entity.Variant)
	for i := range in.Items {
		item := &in.Items[i]
		if item.VariantID == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		variant, err := uc.varRepo.GetByID(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, domain.ErrNotFound
		}
		if variant.CompanyID != actor.CompanyID {
			return nil, domain.ErrForbidden
		}
		if item.UnitPrice.IsZero() {
			item.UnitPrice = variant.Price
		}
		variantsByID[item.VariantID] = variant
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	total := subtotal.Sub(in.Discount).Add(in.Tax)
	if total.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	paymentAmount := in.PaymentAmount
	if split {
		paid := in.PaymentAmount.Add(in.SecondPaymentAmount)
		if paid.Sub(total).Abs().GreaterThan(splitPaymentTolerance) {
			return nil, domain.ErrInvalidInput
		}
	} else if paymentAmount.IsZero() {
		paymentAmount = total
	}

	var created *entity.Transaction
	var changes []ports.StockChange

	for attempt := 0; attempt < maxSeqRetries; attempt++ {
		txID := id
		if txID == "" {
			txID = uuid.New().String()
		}
		txNo := number
		if txNo == "" {
			txNo = seqno.Format(seqno.PrefixTransaction, occurredAt, uc.suffix())
		}
		sale := &entity.Transaction{
			ID:                  txID,
			TransactionNo:       txNo,
			CompanyID:           actor.CompanyID,
			BranchID:            in.BranchID,
			CashierID:           actor.UserID,
			Subtotal:            subtotal,
			Discount:            in.Discount,
			Tax:                 in.Tax,
			Total:               total,
			PaymentMethod:       in.PaymentMethod,
			PaymentAmount:       paymentAmount,
			SecondPaymentMethod: in.SecondPaymentMethod,
			SecondPaymentAmount: in.SecondPaymentAmount,
			Status:              entity.TransactionStatusCompleted,
			CreatedAt:           occurredAt,
			UpdatedAt:           occurredAt,
		}
		changes = changes[:0]

		err = uc.uow.Run(ctx, func(r ports.TxRepos) error {
			// 1) Debitar cada línea bajo bloqueo; cualquier faltante
			//    revierte la venta completa (sin débito parcial).
			for _, item := range in.Items {
				stock, err := r.Stock.GetForUpdate(ctx, item.VariantID, in.BranchID)
				if err != nil {
					return err
				}
				available := int64(0)
				if stock != nil {
					available = stock.Quantity
				}
				if available < item.Quantity {
					return &domain.InsufficientStockError{
						VariantID: item.VariantID,
						BranchID:  in.BranchID,
						Requested: item.Quantity,
						Available: available,
					}
				}
				previous := stock.Quantity
				stock.Quantity -= item.Quantity
				stock.UpdatedAt = occurredAt
				if err := r.Stock.Upsert(ctx, stock); err != nil {
					return err
				}
				changes = append(changes, ports.StockChange{
					CompanyID:   actor.CompanyID,
					BranchID:    in.BranchID,
					VariantID:   item.VariantID,
					PreviousQty: previous,
					NewQty:      stock.Quantity,
					Operation:   ports.StockOpSale,
					At:          occurredAt,
				})
			}

			// 2) Persistir cabecera e ítems.
			if err := r.Transactions.Create(ctx, sale); err != nil {
				return err
			}
			for _, item := range in.Items {
				line := &entity.TransactionItem{
					ID:            uuid.New().String(),
					TransactionID: sale.ID,
					VariantID:     item.VariantID,
					Quantity:      item.Quantity,
					UnitPrice:     item.UnitPrice,
					Subtotal:      item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)),
				}
				if err := r.Transactions.CreateItem(ctx, line); err != nil {
					return err
				}
				sale.Items = append(sale.Items, *line)
			}
			return nil
		})
		if errors.Is(err, domain.ErrDuplicate) && number == "" && id == "" {
			continue // transactionNo colisionó: regenerar y reintentar
		}
		if err != nil {
			return nil, err
		}
		created = sale
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
		Action:      "sale_create",
		EntityType:  "transaction",
		EntityID:    created.ID,
		Description: "venta " + created.TransactionNo,
		Metadata:    map[string]any{"total": created.Total.String(), "items": len(created.Items)},
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   occurredAt,
	})
	return toTransactionResponse(created), nil
}

// Cancel revierte una venta COMPLETED: restaura cada cantidad vendida a su
// StockRecord bajo bloqueo y cambia el estado a CANCELLED en la misma
// transacción. El registro nunca se borra.
func (uc *SalesUseCase) Cancel(ctx context.Context, actor entity.Actor, id string) (*dto.TransactionResponse, error) {
	now := uc.now()
	var cancelled *entity.Transaction
	var changes []ports.StockChange

	err := uc.uow.Run(ctx, func(r ports.TxRepos) error {
		sale, err := r.Transactions.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if sale.CompanyID != actor.CompanyID {
			return domain.ErrForbidden
		}
		if sale.Status == entity.TransactionStatusCancelled {
			return domain.ErrAlreadyCancelled
		}
		items, err := r.Transactions.GetItems(ctx, sale.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			stock, err := r.Stock.GetForUpdate(ctx, item.VariantID, sale.BranchID)
			if err != nil {
				return err
			}
			if stock == nil {
				stock = &entity.StockRecord{VariantID: item.VariantID, BranchID: sale.BranchID, Quantity: 0, UnitPrice: item.UnitPrice}
			}
			previous := stock.Quantity
			stock.Quantity += item.Quantity
			stock.UpdatedAt = now
			if err := r.Stock.Upsert(ctx, stock); err != nil {
				return err
			}
			changes = append(changes, ports.StockChange{
				CompanyID:   sale.CompanyID,
				BranchID:    sale.BranchID,
				VariantID:   item.VariantID,
				PreviousQty: previous,
				NewQty:      stock.Quantity,
				Operation:   ports.StockOpSaleCancel,
				At:          now,
			})
		}
		sale.Status = entity.TransactionStatusCancelled
		sale.UpdatedAt = now
		if err := r.Transactions.UpdateStatus(ctx, sale); err != nil {
			return err
		}
		sale.Items = items
		cancelled = sale
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
		Action:      "sale_cancel",
		EntityType:  "transaction",
		EntityID:    cancelled.ID,
		Description: "venta cancelada " + cancelled.TransactionNo,
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   now,
	})
	return toTransactionResponse(cancelled), nil
}

// GetByID devuelve una venta con sus ítems.
func (uc *SalesUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.TransactionResponse, error) {
	sale, err := uc.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(sale), nil
}

// List lista ventas de una sucursal de la empresa del actor.
func (uc *SalesUseCase) List(ctx context.Context, actor entity.Actor, branchID string, page dto.PageRequest) ([]*dto.TransactionResponse, error) {
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
	list, err := uc.txRepo.ListByBranch(ctx, branchID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TransactionResponse, 0, len(list))
	for _, sale := range list {
		out = append(out, toTransactionResponse(sale))
	}
	return out, nil
}

// Receipt genera el PDF del recibo de una venta.
func (uc *SalesUseCase) Receipt(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	sale, err := uc.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	company, err := uc.companyRepo.GetByID(ctx, sale.CompanyID)
	if err != nil {
		return nil, err
	}
	branch, err := uc.branchRepo.GetByID(ctx, sale.BranchID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(sale.Items))
	for _, item := range sale.Items {
		if _, ok := names[item.VariantID]; ok {
			continue
		}
		variant, err := uc.varRepo.GetByID(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if variant != nil {
			names[item.VariantID] = variant.Name
		}
	}
	return uc.receipts.GenerateReceipt(ctx, ReceiptData{
		Transaction:  sale,
		Company:      company,
		Branch:       branch,
		VariantNames: names,
	})
}

// loadScoped carga una venta con ítems verificando el tenant del actor.
func (uc *SalesUseCase) loadScoped(ctx context.Context, actor entity.Actor, id string) (*entity.Transaction, error) {
	sale, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.txRepo.GetItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (uc *SalesUseCase) publish(ctx context.Context, change ports.StockChange) {
	if err := uc.notifier.StockChanged(ctx, change); err != nil {
		uc.log.Warn().Err(err).
			Str("variant_id", change.VariantID).
			Str("branch_id", change.BranchID).
			Msg("no se pudo publicar el cambio de stock")
	}
}

func toTransactionResponse(sale *entity.Transaction) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:                  sale.ID,
		TransactionNo:       sale.TransactionNo,
		BranchID:            sale.BranchID,
		CashierID:           sale.CashierID,
		Subtotal:            sale.Subtotal,
		Discount:            sale.Discount,
		Tax:                 sale.Tax,
		Total:               sale.Total,
		PaymentMethod:       sale.PaymentMethod,
		PaymentAmount:       sale.PaymentAmount,
		SecondPaymentMethod: sale.SecondPaymentMethod,
		SecondPaymentAmount: sale.SecondPaymentAmount,
		Status:              sale.Status,
		Items:               make([]dto.TransactionItemResponse, 0, len(sale.Items)),
		CreatedAt:           sale.CreatedAt,
	}
	for _, item := range sale.Items {
		resp.Items = append(resp.Items, dto.TransactionItemResponse{
			ID:        item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return resp
}
