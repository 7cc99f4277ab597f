package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/memory"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
	"github.com/tu-usuario/pos-backoffice/pkg/seqno"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: una sucursal con dos variantes en stock (10 × $50 y 5 × $20)
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID = "c-1"
	branchID  = "b-1"
	variantA  = "v-a" // $50, 10 unidades
	variantB  = "v-b" // $20, 5 unidades
)

var actorCajero = entity.Actor{UserID: "u-cajero", CompanyID: companyID, BranchID: branchID, Role: entity.RoleCajero}

// stubReceipts evita generar un PDF real en los tests del motor.
type stubReceipts struct{}

func (stubReceipts) GenerateReceipt(_ context.Context, _ sales.ReceiptData) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

func newFixture(t *testing.T) (*sales.SalesUseCase, *memory.Store) {
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
		ID: variantB, CompanyID: companyID, SKU: "GOR-001", Name: "Gorra",
		Price: decimal.NewFromInt(20), Active: true,
	}))

	stockRepo := memory.NewStockRepository(s)
	require.NoError(t, stockRepo.Upsert(ctx, &entity.StockRecord{VariantID: variantA, BranchID: branchID, Quantity: 10, UnitPrice: decimal.NewFromInt(30)}))
	require.NoError(t, stockRepo.Upsert(ctx, &entity.StockRecord{VariantID: variantB, BranchID: branchID, Quantity: 5, UnitPrice: decimal.NewFromInt(12)}))

	uc := sales.NewSalesUseCase(
		memory.NewUnitOfWork(s),
		memory.NewTransactionRepository(s),
		memory.NewBranchRepository(s),
		variants,
		memory.NewCompanyRepository(s),
		stubReceipts{},
		ports.NoopNotifier{},
		ports.NoopAuditTrail{},
		logger.NewNop(),
	)
	return uc, s
}

func quantityOf(t *testing.T, s *memory.Store, variantID string) int64 {
	t.Helper()
	rec, err := memory.NewStockRepository(s).Get(context.Background(), variantID, branchID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec.Quantity
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DebitaStockYCalculaTotales(t *testing.T) {
	uc, s := newFixture(t)

	resp, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID: branchID,
		Items: []dto.TransactionItemRequest{
			{VariantID: variantA, Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
			{VariantID: variantB, Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
		},
		Discount:      decimal.NewFromInt(10),
		Tax:           decimal.NewFromInt(5),
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.TransactionStatusCompleted, resp.Status)
	assert.Regexp(t, `^INV-\d{8}-\d{4}$`, resp.TransactionNo)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(120)), "subtotal = 2×50 + 1×20")
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(115)), "total = subtotal − descuento + impuesto")
	assert.True(t, resp.PaymentAmount.Equal(decimal.NewFromInt(115)), "monto cero = pagar el total exacto")
	assert.Len(t, resp.Items, 2)

	assert.Equal(t, int64(8), quantityOf(t, s, variantA))
	assert.Equal(t, int64(4), quantityOf(t, s, variantB))
}

// Precio unitario cero = usar el precio vigente de la variante.
func TestCreate_PrecioCeroUsaPrecioDeVariante(t *testing.T) {
	uc, _ := newFixture(t)

	resp, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 3}},
		PaymentMethod: entity.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(150)))
	assert.True(t, resp.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)))
}

// Si una línea no tiene stock, la venta entera se revierte: ni débito parcial
// ni venta persistida.
func TestCreate_StockInsuficienteSinDebitoParcial(t *testing.T) {
	uc, s := newFixture(t)

	_, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID: branchID,
		Items: []dto.TransactionItemRequest{
			{VariantID: variantA, Quantity: 2},
			{VariantID: variantB, Quantity: 6}, // solo hay 5
		},
		PaymentMethod: entity.PaymentMethodCash,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, variantB, insufficient.VariantID)
	assert.Equal(t, int64(5), insufficient.Available)

	assert.Equal(t, int64(10), quantityOf(t, s, variantA), "el débito de la primera línea debe revertirse")
	assert.Equal(t, int64(5), quantityOf(t, s, variantB))
}

func TestCreate_DescuentoMayorAlSubtotalInvalido(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantB, Quantity: 1}},
		Discount:      decimal.NewFromInt(30),
		PaymentMethod: entity.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_MetodoDePagoInvalido(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 1}},
		PaymentMethod: "TRUEQUE",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pago dividido (tolerancia absoluta 0.01)
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_PagoDivididoExacto(t *testing.T) {
	uc, _ := newFixture(t)

	// total = 2×50 = 100
	resp, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:            branchID,
		Items:               []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 2}},
		PaymentMethod:       entity.PaymentMethodCash,
		PaymentAmount:       decimal.NewFromInt(60),
		SecondPaymentMethod: entity.PaymentMethodCard,
		SecondPaymentAmount: decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentMethodCard, resp.SecondPaymentMethod)
}

func TestCreate_PagoDivididoDentroDeTolerancia(t *testing.T) {
	uc, _ := newFixture(t)

	// 60 + 39.99 = 99.99; |99.99 − 100| = 0.01 → dentro de la tolerancia
	_, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:            branchID,
		Items:               []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 2}},
		PaymentMethod:       entity.PaymentMethodCash,
		PaymentAmount:       decimal.NewFromInt(60),
		SecondPaymentMethod: entity.PaymentMethodEWallet,
		SecondPaymentAmount: decimal.NewFromFloat(39.99),
	})
	assert.NoError(t, err)
}

func TestCreate_PagoDivididoFueraDeTolerancia(t *testing.T) {
	uc, s := newFixture(t)

	// 60 + 39.98 = 99.98; |99.98 − 100| = 0.02 → rechazado
	_, err := uc.Create(context.Background(), actorCajero, dto.CreateTransactionRequest{
		BranchID:            branchID,
		Items:               []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 2}},
		PaymentMethod:       entity.PaymentMethodCash,
		PaymentAmount:       decimal.NewFromInt(60),
		SecondPaymentMethod: entity.PaymentMethodCard,
		SecondPaymentAmount: decimal.NewFromFloat(39.98),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), quantityOf(t, s, variantA), "la validación de pago corta antes de tocar stock")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_RestauraStockExacto(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID: branchID,
		Items: []dto.TransactionItemRequest{
			{VariantID: variantA, Quantity: 4},
			{VariantID: variantB, Quantity: 2},
		},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), quantityOf(t, s, variantA))

	cancelled, err := uc.Cancel(ctx, actorCajero, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusCancelled, cancelled.Status)

	assert.Equal(t, int64(10), quantityOf(t, s, variantA))
	assert.Equal(t, int64(5), quantityOf(t, s, variantB))

	// El registro sobrevive a la cancelación.
	got, err := uc.GetByID(ctx, actorCajero, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusCancelled, got.Status)
}

func TestCancel_DobleCancelacionNoAcreditaDosVeces(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 4}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = uc.Cancel(ctx, actorCajero, created.ID)
	require.NoError(t, err)

	_, err = uc.Cancel(ctx, actorCajero, created.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, int64(10), quantityOf(t, s, variantA), "el crédito se aplica exactamente una vez")
}

func TestCancel_OtraEmpresaProhibido(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 1}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	ajeno := entity.Actor{UserID: "u-x", CompanyID: "c-otra", Role: entity.RoleAdmin}
	_, err = uc.Cancel(ctx, ajeno, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta y recibo
// ──────────────────────────────────────────────────────────────────────────────

func TestGetByID_IncluyeItems(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 2}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	got, err := uc.GetByID(ctx, actorCajero, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, variantA, got.Items[0].VariantID)
	assert.True(t, got.Items[0].Subtotal.Equal(decimal.NewFromInt(100)))
}

func TestReceipt_GeneraDocumento(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 1}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	pdf, err := uc.Receipt(ctx, actorCajero, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

// ──────────────────────────────────────────────────────────────────────────────
// Colisión de numeración (índice único sobre transaction_no)
// ──────────────────────────────────────────────────────────────────────────────

// Si el número generado ya existe, el motor regenera y reintenta; el intento
// fallido se revierte completo (sin doble débito de stock).
func TestCreate_NumeroColisionadoRegeneraYReintenta(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	ocupado := seqno.Format(seqno.PrefixTransaction, time.Now(), 41)
	require.NoError(t, memory.NewTransactionRepository(s).Create(ctx, &entity.Transaction{
		ID: "t-previa", TransactionNo: ocupado, CompanyID: companyID, BranchID: branchID,
		Status: entity.TransactionStatusCompleted,
	}))

	suffixes := []int{41, 42}
	calls := 0
	uc.SetSuffix(func() int {
		n := suffixes[calls%len(suffixes)]
		calls++
		return n
	})

	resp, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 2}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, seqno.Format(seqno.PrefixTransaction, time.Now(), 42), resp.TransactionNo)
	assert.Equal(t, 2, calls, "un intento colisionado y un reintento exitoso")
	assert.Equal(t, int64(8), quantityOf(t, s, variantA), "el intento colisionado no debita stock")
}

// Agotados los reintentos con el mismo número ocupado, la venta falla con
// conflicto y el stock queda intacto.
func TestCreate_ColisionPersistenteDevuelveConflicto(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	ocupado := seqno.Format(seqno.PrefixTransaction, time.Now(), 7)
	require.NoError(t, memory.NewTransactionRepository(s).Create(ctx, &entity.Transaction{
		ID: "t-previa", TransactionNo: ocupado, CompanyID: companyID, BranchID: branchID,
		Status: entity.TransactionStatusCompleted,
	}))
	uc.SetSuffix(func() int { return 7 })

	_, err := uc.Create(ctx, actorCajero, dto.CreateTransactionRequest{
		BranchID:      branchID,
		Items:         []dto.TransactionItemRequest{{VariantID: variantA, Quantity: 2}},
		PaymentMethod: entity.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(10), quantityOf(t, s, variantA))
}
