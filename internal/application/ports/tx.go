package ports

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// TxRepos agrupa los repositorios del motor atados a una misma transacción
// de BD. Todo lo que se lea o escriba a través de ellos hace Commit o
// Rollback como un solo conjunto.
type TxRepos struct {
	Stock        repository.StockRepository
	Adjustments  repository.AdjustmentRepository
	Transfers    repository.TransferRepository
	Transactions repository.TransactionRepository
	Returns      repository.ReturnRepository
}

// UnitOfWork ejecuta fn dentro de una transacción, pasando repositorios
// atados a esa tx. Si fn retorna error se hace Rollback; la cancelación del
// contexto (timeout del store) también revierte y el caller recibe un error
// reintentable. Garantiza la atomicidad de todas las mutaciones multi-paso
// del motor.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
