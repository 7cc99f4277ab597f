package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/memory"
)

// La unidad de trabajo debe emular el rollback transaccional: si fn falla,
// ninguna escritura intermedia sobrevive.
func TestUnitOfWork_RollbackRestauraEstado(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, memory.NewStockRepository(s).Upsert(ctx, &entity.StockRecord{
		VariantID: "v-1", BranchID: "b-1", Quantity: 10, UnitPrice: decimal.NewFromInt(5),
	}))

	boom := errors.New("boom")
	err := memory.NewUnitOfWork(s).Run(ctx, func(r ports.TxRepos) error {
		rec, err := r.Stock.GetForUpdate(ctx, "v-1", "b-1")
		require.NoError(t, err)
		rec.Quantity = 0
		require.NoError(t, r.Stock.Upsert(ctx, rec))
		require.NoError(t, r.Adjustments.Create(ctx, &entity.StockAdjustment{ID: "a-1", VariantID: "v-1", BranchID: "b-1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := memory.NewStockRepository(s).Get(ctx, "v-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Quantity, "la escritura intermedia se revierte")

	adjs, err := memory.NewAdjustmentRepository(s).ListByStock(ctx, "v-1", "b-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, adjs)
}

func TestUnitOfWork_CommitPersiste(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	err := memory.NewUnitOfWork(s).Run(ctx, func(r ports.TxRepos) error {
		return r.Stock.Upsert(ctx, &entity.StockRecord{VariantID: "v-1", BranchID: "b-1", Quantity: 3})
	})
	require.NoError(t, err)

	rec, err := memory.NewStockRepository(s).Get(ctx, "v-1", "b-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(3), rec.Quantity)
}

func TestUnitOfWork_ContextoCancelado(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := memory.NewUnitOfWork(s).Run(ctx, func(r ports.TxRepos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

// Los índices únicos del store se comportan como los de PostgreSQL.
func TestTransactionRepo_NumeroUnico(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	repo := memory.NewTransactionRepository(s)

	require.NoError(t, repo.Create(ctx, &entity.Transaction{ID: "t-1", TransactionNo: "INV-20240101-0001"}))

	err := repo.Create(ctx, &entity.Transaction{ID: "t-2", TransactionNo: "INV-20240101-0001"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	exists, err := repo.Exists(ctx, "t-ajeno", "INV-20240101-0001")
	require.NoError(t, err)
	assert.True(t, exists, "Exists matchea por id O por número")
}
