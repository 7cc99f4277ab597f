package returns_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/application/returns"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/memory"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: sucursal con la variante vendida ($50) y una variante de cambio ($30)
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID = "c-1"
	branchID  = "b-1"
	variantA  = "v-a" // $50, lo vendido
	variantC  = "v-c" // $30, mercancía de cambio
)

var (
	actorAdmin  = entity.Actor{UserID: "u-admin", CompanyID: companyID, Role: entity.RoleAdmin}
	actorCajero = entity.Actor{UserID: "u-cajero", CompanyID: companyID, Role: entity.RoleCajero}
)

type stubReceipts struct{}

func (stubReceipts) GenerateReceipt(_ context.Context, _ sales.ReceiptData) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

type fixture struct {
	returns *returns.ReturnUseCase
	sales   *sales.SalesUseCase
	store   *memory.Store
}

func newFixture(t *testing.T, deadlineDays int) *fixture {
	t.Helper()
	s := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, memory.NewCompanyRepository(s).Create(ctx, &entity.Company{ID: companyID, Name: "Tienda Demo"}))
	require.NoError(t, memory.NewBranchRepository(s).Create(ctx, &entity.Branch{ID: branchID, CompanyID: companyID, Name: "Centro"}))

	variants := memory.NewVariantRepository(s)
	require.NoError(t, variants.Create(ctx, &entity.Variant{
		ID: variantA, CompanyID: companyID, SKU: "CAM-001", Name: "Camisa",
		Price: decimal.NewFromInt(50), Active: true,
	}))
	require.NoError(t, variants.Create(ctx, &entity.Variant{
		ID: variantC, CompanyID: companyID, SKU: "BUF-001", Name: "Bufanda",
		Price: decimal.NewFromInt(30), Active: true,
	}))

	stockRepo := memory.NewStockRepository(s)
	require.NoError(t, stockRepo.Upsert(ctx, &entity.StockRecord{VariantID: variantA, BranchID: branchID, Quantity: 20, UnitPrice: decimal.NewFromInt(25)}))
	require.NoError(t, stockRepo.Upsert(ctx, &entity.StockRecord{VariantID: variantC, BranchID: branchID, Quantity: 5, UnitPrice: decimal.NewFromInt(18)}))

	uow := memory.NewUnitOfWork(s)
	salesUC := sales.NewSalesUseCase(
		uow,
		memory.NewTransactionRepository(s),
		memory.NewBranchRepository(s),
		variants,
		memory.NewCompanyRepository(s),
		stubReceipts{},
		ports.NoopNotifier{},
		ports.NoopAuditTrail{},
		logger.NewNop(),
	)
	returnsUC := returns.NewReturnUseCase(
		uow,
		memory.NewReturnRepository(s),
		memory.NewTransactionRepository(s),
		variants,
		ports.NoopNotifier{},
		ports.NoopAuditTrail{},
		logger.NewNop(),
		[]string{entity.RoleAdmin, entity.RoleGerente},
		deadlineDays,
	)
	return &fixture{returns: returnsUC, sales: salesUC, store: s}
}

// makeSale vende qty unidades de la variante A y devuelve la venta con sus líneas.
func (f *fixture) makeSale(t *testing.T, qty int64) *dto.TransactionResponse {
	t.Helper()
	sale, err := f.sales.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: qty}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	return sale
}

func (f *fixture) quantityOf(t *testing.T, variantID string) int64 {
	t.Helper()
	rec, err := memory.NewStockRepository(f.store).Get(context.Background(), variantID, branchID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec.Quantity
}

func refundRequest(sale *dto.TransactionResponse, qty int64, reason string) dto.CreateReturnRequest {
	return dto.CreateReturnRequest{
		TransactionID: sale.ID,
		Reason:        reason,
		ReturnType:    entity.ReturnTypeRefund,
		Items:         []dto.ReturnItemRequest{{TransactionItemID: sale.Items[0].ID, Quantity: qty}},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación y auto-aprobación
// ──────────────────────────────────────────────────────────────────────────────

// Un cajero solo solicita: la devolución queda PENDING sin tocar stock.
func TestCreate_CajeroQuedaPendiente(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10) // stock A: 20 → 10

	ret, err := f.returns.Create(context.Background(), actorCajero, refundRequest(sale, 3, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	assert.Equal(t, entity.ReturnStatusPending, ret.Status)
	assert.Regexp(t, `^RET-\d{8}-\d{4}$`, ret.ReturnNo)
	assert.True(t, ret.RefundAmount.Equal(decimal.NewFromInt(150)), "reembolso = 3 × $50 (precio de la línea original)")
	assert.Equal(t, int64(10), f.quantityOf(t, variantA), "PENDING no toca el stock")
}

// Un admin auto-aprueba: nace COMPLETED y el restock se aplica en el mismo paso.
func TestCreate_AdminAutoCompletaConRestock(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)

	ret, err := f.returns.Create(context.Background(), actorAdmin, refundRequest(sale, 3, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	assert.Equal(t, entity.ReturnStatusCompleted, ret.Status)
	assert.Equal(t, actorAdmin.UserID, ret.ProcessedBy)
	require.NotNil(t, ret.ProcessedAt)
	assert.Equal(t, int64(13), f.quantityOf(t, variantA), "10 tras la venta + 3 reingresadas")
}

// ──────────────────────────────────────────────────────────────────────────────
// Remanente devolvible (vendido − PENDING − COMPLETED)
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_NoExcedeLoVendido(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)
	ctx := context.Background()

	// 4 ya devueltas (COMPLETED).
	_, err := f.returns.Create(ctx, actorAdmin, refundRequest(sale, 4, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	// 4 + 7 > 10 → rechazado.
	_, err = f.returns.Create(ctx, actorCajero, refundRequest(sale, 7, entity.ReturnReasonCustomerRequest))
	assert.ErrorIs(t, err, domain.ErrExceedsReturnable)

	// 4 + 6 = 10 → el remanente exacto sí pasa.
	_, err = f.returns.Create(ctx, actorCajero, refundRequest(sale, 6, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	// Ya no queda nada por devolver.
	_, err = f.returns.Create(ctx, actorCajero, refundRequest(sale, 1, entity.ReturnReasonCustomerRequest))
	assert.ErrorIs(t, err, domain.ErrExceedsReturnable)
}

// Las devoluciones PENDING también consumen remanente: dos solicitudes que en
// conjunto exceden lo vendido no pueden coexistir.
func TestCreate_PendingConsumeRemanente(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)
	ctx := context.Background()

	_, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 4, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	_, err = f.returns.Create(ctx, actorCajero, refundRequest(sale, 7, entity.ReturnReasonCustomerRequest))
	assert.ErrorIs(t, err, domain.ErrExceedsReturnable)
}

// Una devolución rechazada libera su remanente.
func TestCreate_RechazadaLiberaRemanente(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)
	ctx := context.Background()

	pend, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 8, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	_, err = f.returns.Reject(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{Notes: "sin ticket"})
	require.NoError(t, err)

	_, err = f.returns.Create(ctx, actorCajero, refundRequest(sale, 8, entity.ReturnReasonCustomerRequest))
	assert.NoError(t, err, "lo rechazado no cuenta contra el remanente")
}

// ──────────────────────────────────────────────────────────────────────────────
// Write-off vs restock
// ──────────────────────────────────────────────────────────────────────────────

// Mercancía dañada no reingresa al stock vendible: la aprobación deja el stock
// igual y documenta la merma con un ajuste negativo.
func TestApprove_DanadoEsWriteOff(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10) // stock A: 10
	ctx := context.Background()

	ret, err := f.returns.Create(ctx, actorAdmin, refundRequest(sale, 2, entity.ReturnReasonDamaged))
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusCompleted, ret.Status)
	assert.True(t, ret.RefundAmount.Equal(decimal.NewFromInt(100)), "la merma no reduce el reembolso al cliente")

	assert.Equal(t, int64(10), f.quantityOf(t, variantA), "write-off: el stock no cambia")

	adjs, err := memory.NewAdjustmentRepository(f.store).ListByStock(ctx, variantA, branchID, 10, 0)
	require.NoError(t, err)
	require.Len(t, adjs, 1)
	assert.Equal(t, int64(-2), adjs[0].Difference)
	assert.Equal(t, entity.AdjustmentReasonDamaged, adjs[0].Reason)
	assert.Equal(t, adjs[0].PreviousQty, adjs[0].NewQty, "el ajuste documenta, no muta")
	assert.Contains(t, adjs[0].Notes, ret.ReturnNo)
}

func TestApprove_MotivoNoDanadoReingresa(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)
	ctx := context.Background()

	pend, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 2, entity.ReturnReasonWrongSize))
	require.NoError(t, err)

	_, err = f.returns.Approve(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), f.quantityOf(t, variantA))

	adjs, err := memory.NewAdjustmentRepository(f.store).ListByStock(ctx, variantA, branchID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, adjs, "el restock no genera fila de ajuste")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cambios (EXCHANGE)
// ──────────────────────────────────────────────────────────────────────────────

// Devuelve 1 × $50 y se lleva 2 × $30: el cliente debe $10 y no hay reembolso.
func TestExchange_ClienteDebeLaDiferencia(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)

	ret, err := f.returns.Create(context.Background(), actorAdmin, dto.CreateReturnRequest{
		TransactionID: sale.ID,
		Reason:        entity.ReturnReasonWrongSize,
		ReturnType:    entity.ReturnTypeExchange,
		Items:         []dto.ReturnItemRequest{{TransactionItemID: sale.Items[0].ID, Quantity: 1}},
		ExchangeItems: []dto.ExchangeItemRequest{{VariantID: variantC, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.True(t, ret.PriceDifference.Equal(decimal.NewFromInt(10)), "60 de mercancía nueva − 50 devueltos")
	assert.True(t, ret.RefundAmount.IsZero())
	assert.Equal(t, int64(11), f.quantityOf(t, variantA), "la camisa devuelta reingresa")
	assert.Equal(t, int64(3), f.quantityOf(t, variantC), "la mercancía nueva se debita")
}

// Devuelve 2 × $50 y se lleva 1 × $30: se le reembolsan $70.
func TestExchange_ClienteRecibeReembolso(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)

	ret, err := f.returns.Create(context.Background(), actorAdmin, dto.CreateReturnRequest{
		TransactionID: sale.ID,
		Reason:        entity.ReturnReasonWrongItem,
		ReturnType:    entity.ReturnTypeExchange,
		Items:         []dto.ReturnItemRequest{{TransactionItemID: sale.Items[0].ID, Quantity: 2}},
		ExchangeItems: []dto.ExchangeItemRequest{{VariantID: variantC, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.True(t, ret.PriceDifference.Equal(decimal.NewFromInt(-70)))
	assert.True(t, ret.RefundAmount.Equal(decimal.NewFromInt(70)))
}

// Si no hay stock para la mercancía nueva, la aprobación entera falla: la
// devolución sigue PENDING y nada se mueve (ni siquiera el restock).
func TestExchange_SinStockNuevoMantienePendiente(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)
	ctx := context.Background()

	pend, err := f.returns.Create(ctx, actorCajero, dto.CreateReturnRequest{
		TransactionID: sale.ID,
		Reason:        entity.ReturnReasonWrongSize,
		ReturnType:    entity.ReturnTypeExchange,
		Items:         []dto.ReturnItemRequest{{TransactionItemID: sale.Items[0].ID, Quantity: 1}},
		ExchangeItems: []dto.ExchangeItemRequest{{VariantID: variantC, Quantity: 99}},
	})
	require.NoError(t, err)

	_, err = f.returns.Approve(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, variantC, insufficient.VariantID)

	got, err := f.returns.GetByID(ctx, actorAdmin, pend.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusPending, got.Status)
	assert.Equal(t, int64(10), f.quantityOf(t, variantA), "el restock también se revierte")
	assert.Equal(t, int64(5), f.quantityOf(t, variantC))
}

func TestCreate_RefundConItemsDeCambioInvalido(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 2)

	req := refundRequest(sale, 1, entity.ReturnReasonOther)
	req.ExchangeItems = []dto.ExchangeItemRequest{{VariantID: variantC, Quantity: 1}}
	_, err := f.returns.Create(context.Background(), actorCajero, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_ExchangeSinItemsDeCambioInvalido(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 2)

	req := refundRequest(sale, 1, entity.ReturnReasonOther)
	req.ReturnType = entity.ReturnTypeExchange
	_, err := f.returns.Create(context.Background(), actorCajero, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Plazo de devolución
// ──────────────────────────────────────────────────────────────────────────────

// seedOldSale inserta una venta COMPLETED con fecha antigua, fuera del motor.
func (f *fixture) seedOldSale(t *testing.T, age time.Duration) *entity.TransactionItem {
	t.Helper()
	ctx := context.Background()
	txRepo := memory.NewTransactionRepository(f.store)
	old := time.Now().Add(-age)
	require.NoError(t, txRepo.Create(ctx, &entity.Transaction{
		ID: "sale-vieja", TransactionNo: "INV-20240101-0001",
		CompanyID: companyID, BranchID: branchID, CashierID: actorCajero.UserID,
		Subtotal: decimal.NewFromInt(100), Total: decimal.NewFromInt(100),
		PaymentMethod: entity.PaymentMethodCash, PaymentAmount: decimal.NewFromInt(100),
		Status: entity.TransactionStatusCompleted, CreatedAt: old, UpdatedAt: old,
	}))
	item := &entity.TransactionItem{
		ID: "item-viejo", TransactionID: "sale-vieja", VariantID: variantA,
		Quantity: 2, UnitPrice: decimal.NewFromInt(50), Subtotal: decimal.NewFromInt(100),
	}
	require.NoError(t, txRepo.CreateItem(ctx, item))
	return item
}

func oldSaleRequest(item *entity.TransactionItem, override bool) dto.CreateReturnRequest {
	return dto.CreateReturnRequest{
		TransactionID:   "sale-vieja",
		Reason:          entity.ReturnReasonCustomerRequest,
		ReturnType:      entity.ReturnTypeRefund,
		Items:           []dto.ReturnItemRequest{{TransactionItemID: item.ID, Quantity: 1}},
		ManagerOverride: override,
	}
}

func TestCreate_PlazoVencido(t *testing.T) {
	f := newFixture(t, 7)
	item := f.seedOldSale(t, 30*24*time.Hour)

	_, err := f.returns.Create(context.Background(), actorCajero, oldSaleRequest(item, false))
	assert.ErrorIs(t, err, domain.ErrReturnWindowExpired)
}

// ManagerOverride solo vale en manos de un rol privilegiado.
func TestCreate_OverrideSoloPrivilegiado(t *testing.T) {
	f := newFixture(t, 7)
	item := f.seedOldSale(t, 30*24*time.Hour)
	ctx := context.Background()

	_, err := f.returns.Create(ctx, actorCajero, oldSaleRequest(item, true))
	assert.ErrorIs(t, err, domain.ErrReturnWindowExpired, "el flag de un cajero se ignora")

	ret, err := f.returns.Create(ctx, actorAdmin, oldSaleRequest(item, true))
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusCompleted, ret.Status)
}

// deadlineDays = 0 desactiva el plazo por completo.
func TestCreate_PlazoCeroSinLimite(t *testing.T) {
	f := newFixture(t, 0)
	item := f.seedOldSale(t, 365*24*time.Hour)

	_, err := f.returns.Create(context.Background(), actorCajero, oldSaleRequest(item, false))
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación / rechazo
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_CajeroProhibido(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 5)
	ctx := context.Background()

	pend, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 1, entity.ReturnReasonOther))
	require.NoError(t, err)

	_, err = f.returns.Approve(ctx, actorCajero, pend.ID, dto.ProcessReturnRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApprove_DobleAprobacion(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 5)
	ctx := context.Background()

	pend, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 1, entity.ReturnReasonOther))
	require.NoError(t, err)

	_, err = f.returns.Approve(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{})
	require.NoError(t, err)

	before := f.quantityOf(t, variantA)
	_, err = f.returns.Approve(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{})
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Equal(t, before, f.quantityOf(t, variantA), "los efectos de stock no se repiten")
}

func TestReject_SinEfectoSobreStock(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 5) // stock A: 15
	ctx := context.Background()

	pend, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 2, entity.ReturnReasonOther))
	require.NoError(t, err)

	rejected, err := f.returns.Reject(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{Notes: "sin ticket"})
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusRejected, rejected.Status)
	assert.Equal(t, "sin ticket", rejected.Notes)
	assert.Equal(t, int64(15), f.quantityOf(t, variantA))

	_, err = f.returns.Approve(ctx, actorAdmin, pend.ID, dto.ProcessReturnRequest{})
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed, "REJECTED es terminal")
}

// Una venta cancelada no admite devoluciones.
func TestCreate_VentaCanceladaConflicto(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 5)
	ctx := context.Background()

	_, err := f.sales.Cancel(ctx, actorCajero, sale.ID)
	require.NoError(t, err)

	_, err = f.returns.Create(ctx, actorCajero, refundRequest(sale, 1, entity.ReturnReasonOther))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreate_LineaInexistente(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 5)

	req := refundRequest(sale, 1, entity.ReturnReasonOther)
	req.Items[0].TransactionItemID = "linea-fantasma"
	_, err := f.returns.Create(context.Background(), actorCajero, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t, 7)
	sale := f.makeSale(t, 10)
	ctx := context.Background()

	_, err := f.returns.Create(ctx, actorCajero, refundRequest(sale, 1, entity.ReturnReasonOther))
	require.NoError(t, err)
	_, err = f.returns.Create(ctx, actorAdmin, refundRequest(sale, 2, entity.ReturnReasonCustomerRequest))
	require.NoError(t, err)

	pendientes, err := f.returns.List(ctx, actorAdmin, entity.ReturnStatusPending, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, pendientes, 1)

	todas, err := f.returns.List(ctx, actorAdmin, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, todas, 2)
}
