package transfer_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/application/transfer"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/memory"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: dos sucursales; el origen con 10 unidades, el destino sin fila
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID    = "c-1"
	fromBranchID = "b-origen"
	toBranchID   = "b-destino"
	variantID    = "v-1"
)

var (
	actorAdmin  = entity.Actor{UserID: "u-admin", CompanyID: companyID, Role: entity.RoleAdmin}
	actorCajero = entity.Actor{UserID: "u-cajero", CompanyID: companyID, Role: entity.RoleCajero}
)

func newFixture(t *testing.T) (*transfer.TransferUseCase, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	ctx := context.Background()

	branches := memory.NewBranchRepository(s)
	require.NoError(t, branches.Create(ctx, &entity.Branch{ID: fromBranchID, CompanyID: companyID, Name: "Origen"}))
	require.NoError(t, branches.Create(ctx, &entity.Branch{ID: toBranchID, CompanyID: companyID, Name: "Destino"}))
	require.NoError(t, memory.NewVariantRepository(s).Create(ctx, &entity.Variant{
		ID: variantID, CompanyID: companyID, SKU: "PAN-001", Name: "Pantalón",
		Price: decimal.NewFromInt(80), Active: true,
	}))
	require.NoError(t, memory.NewStockRepository(s).Upsert(ctx, &entity.StockRecord{
		VariantID: variantID, BranchID: fromBranchID, Quantity: 10, UnitPrice: decimal.NewFromInt(45),
	}))

	uc := transfer.NewTransferUseCase(
		memory.NewUnitOfWork(s),
		memory.NewTransferRepository(s),
		branches,
		memory.NewVariantRepository(s),
		memory.NewStockRepository(s),
		ports.NoopNotifier{},
		ports.NoopAuditTrail{},
		logger.NewNop(),
		[]string{entity.RoleAdmin, entity.RoleGerente},
	)
	return uc, s
}

func quantityAt(t *testing.T, s *memory.Store, branch string) int64 {
	t.Helper()
	rec, err := memory.NewStockRepository(s).Get(context.Background(), variantID, branch)
	require.NoError(t, err)
	if rec == nil {
		return 0
	}
	return rec.Quantity
}

func requestTransfer(qty int64) dto.RequestTransferRequest {
	return dto.RequestTransferRequest{
		VariantID: variantID, FromBranchID: fromBranchID, ToBranchID: toBranchID, Quantity: qty,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Solicitud
// ──────────────────────────────────────────────────────────────────────────────

// Un cajero solo solicita: la transferencia queda PENDING y el stock intacto.
func TestRequest_CajeroQuedaPendiente(t *testing.T) {
	uc, s := newFixture(t)

	resp, err := uc.Request(context.Background(), actorCajero, requestTransfer(4))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, resp.Status)
	assert.Regexp(t, `^TRF-\d{8}-\d{4}$`, resp.TransferNo)

	assert.Equal(t, int64(10), quantityAt(t, s, fromBranchID), "el stock no se mueve hasta la aprobación")
	assert.Equal(t, int64(0), quantityAt(t, s, toBranchID))
}

// Un admin auto-aprueba: nace COMPLETED y el stock se mueve en el mismo paso.
func TestRequest_AdminAutoCompleta(t *testing.T) {
	uc, s := newFixture(t)

	resp, err := uc.Request(context.Background(), actorAdmin, requestTransfer(4))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, resp.Status)
	assert.Equal(t, actorAdmin.UserID, resp.ProcessedBy)
	require.NotNil(t, resp.ProcessedAt)

	assert.Equal(t, int64(6), quantityAt(t, s, fromBranchID))
	assert.Equal(t, int64(4), quantityAt(t, s, toBranchID), "el destino se crea perezosamente")
}

func TestRequest_StockInsuficiente(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.Request(context.Background(), actorCajero, requestTransfer(11))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(10), insufficient.Available)
}

func TestRequest_MismaSucursalInvalida(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.Request(context.Background(), actorCajero, dto.RequestTransferRequest{
		VariantID: variantID, FromBranchID: fromBranchID, ToBranchID: fromBranchID, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_MueveStockUnaVez(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	created, err := uc.Request(ctx, actorCajero, requestTransfer(3))
	require.NoError(t, err)

	approved, err := uc.Approve(ctx, actorAdmin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, approved.Status)
	assert.Equal(t, int64(7), quantityAt(t, s, fromBranchID))
	assert.Equal(t, int64(3), quantityAt(t, s, toBranchID))

	// La segunda aprobación no vuelve a mover el stock.
	_, err = uc.Approve(ctx, actorAdmin, created.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Equal(t, int64(7), quantityAt(t, s, fromBranchID))
	assert.Equal(t, int64(3), quantityAt(t, s, toBranchID))
}

func TestApprove_CajeroProhibido(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	created, err := uc.Request(ctx, actorCajero, requestTransfer(3))
	require.NoError(t, err)

	_, err = uc.Approve(ctx, actorCajero, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// El origen pudo vaciarse entre la solicitud y la aprobación: la aprobación
// re-valida bajo bloqueo y falla dejando la transferencia PENDING.
func TestApprove_OrigenVaciadoFalla(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	created, err := uc.Request(ctx, actorCajero, requestTransfer(8))
	require.NoError(t, err)

	// Se vacía el origen por fuera (otra venta, otro ajuste).
	require.NoError(t, memory.NewStockRepository(s).Upsert(ctx, &entity.StockRecord{
		VariantID: variantID, BranchID: fromBranchID, Quantity: 2, UnitPrice: decimal.NewFromInt(45),
	}))

	_, err = uc.Approve(ctx, actorAdmin, created.ID)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	pending, err := uc.GetByID(ctx, actorAdmin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, pending.Status, "la transferencia sigue PENDING y puede reintentarse")
	assert.Equal(t, int64(2), quantityAt(t, s, fromBranchID))
	assert.Equal(t, int64(0), quantityAt(t, s, toBranchID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazo
// ──────────────────────────────────────────────────────────────────────────────

func TestReject_SinEfectoSobreStock(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	created, err := uc.Request(ctx, actorCajero, requestTransfer(5))
	require.NoError(t, err)

	rejected, err := uc.Reject(ctx, actorAdmin, created.ID, "no hace falta")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, rejected.Status)
	assert.Equal(t, int64(10), quantityAt(t, s, fromBranchID))

	// Estado terminal: ni aprobar ni volver a rechazar.
	_, err = uc.Approve(ctx, actorAdmin, created.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	_, err = uc.Reject(ctx, actorAdmin, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

// El solicitante puede retirar su propia solicitud pendiente.
func TestReject_SolicitantePuedeRetirar(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	created, err := uc.Request(ctx, actorCajero, requestTransfer(2))
	require.NoError(t, err)

	rejected, err := uc.Reject(ctx, actorCajero, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, rejected.Status)
}

// Otro cajero que no es el solicitante no puede rechazar.
func TestReject_OtroCajeroProhibido(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	created, err := uc.Request(ctx, actorCajero, requestTransfer(2))
	require.NoError(t, err)

	otro := entity.Actor{UserID: "u-cajero-2", CompanyID: companyID, Role: entity.RoleCajero}
	_, err = uc.Reject(ctx, otro, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestList_FiltraPorEstado(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	_, err := uc.Request(ctx, actorCajero, requestTransfer(1))
	require.NoError(t, err)
	_, err = uc.Request(ctx, actorAdmin, requestTransfer(2))
	require.NoError(t, err)

	pendientes, err := uc.List(ctx, actorAdmin, entity.TransferStatusPending, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, pendientes, 1)
	assert.Equal(t, entity.TransferStatusPending, pendientes[0].Status)

	todas, err := uc.List(ctx, actorAdmin, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, todas, 2)
}
