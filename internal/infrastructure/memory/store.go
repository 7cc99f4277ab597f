// Package memory implementa los puertos de persistencia sobre mapas en
// memoria. Es el backend de los tests de los motores: mismas semánticas que
// el adaptador PostgreSQL (índices únicos, rollback, serialización de
// escrituras) sin base de datos.
package memory

import (
	"context"
	"sync"

	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// Store guarda todo el estado por valor; clave de stock "variantID|branchID".
// Un solo mutex protege el conjunto: la unidad de trabajo lo retiene durante
// toda la transacción, de modo que las escrituras quedan serializadas igual
// que con los bloqueos de fila de PostgreSQL.
type Store struct {
	mu sync.Mutex

	stock          map[string]entity.StockRecord
	adjustments    []entity.StockAdjustment
	transfers      map[string]entity.StockTransfer
	transferNos    map[string]string // transferNo -> id
	transactions   map[string]entity.Transaction
	transactionNos map[string]string // transactionNo -> id
	txItems        map[string][]entity.TransactionItem
	returns        map[string]entity.Return
	returnNos      map[string]string // returnNo -> id
	returnItems    map[string][]entity.ReturnItem
	exchangeItems  map[string][]entity.ExchangeItem
	variants       map[string]entity.Variant
	branches       map[string]entity.Branch
	users          map[string]entity.User
	companies      map[string]entity.Company
	auditLogs      []entity.AuditLog
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		stock:          make(map[string]entity.StockRecord),
		transfers:      make(map[string]entity.StockTransfer),
		transferNos:    make(map[string]string),
		transactions:   make(map[string]entity.Transaction),
		transactionNos: make(map[string]string),
		txItems:        make(map[string][]entity.TransactionItem),
		returns:        make(map[string]entity.Return),
		returnNos:      make(map[string]string),
		returnItems:    make(map[string][]entity.ReturnItem),
		exchangeItems:  make(map[string][]entity.ExchangeItem),
		variants:       make(map[string]entity.Variant),
		branches:       make(map[string]entity.Branch),
		users:          make(map[string]entity.User),
		companies:      make(map[string]entity.Company),
	}
}

func stockKey(variantID, branchID string) string {
	return variantID + "|" + branchID
}

// snapshot copia profunda del estado mutable por los motores (para rollback).
func (s *Store) snapshot() *Store {
	snap := NewStore()
	for k, v := range s.stock {
		snap.stock[k] = v
	}
	snap.adjustments = append([]entity.StockAdjustment(nil), s.adjustments...)
	for k, v := range s.transfers {
		snap.transfers[k] = v
	}
	for k, v := range s.transferNos {
		snap.transferNos[k] = v
	}
	for k, v := range s.transactions {
		snap.transactions[k] = v
	}
	for k, v := range s.transactionNos {
		snap.transactionNos[k] = v
	}
	for k, v := range s.txItems {
		snap.txItems[k] = append([]entity.TransactionItem(nil), v...)
	}
	for k, v := range s.returns {
		snap.returns[k] = v
	}
	for k, v := range s.returnNos {
		snap.returnNos[k] = v
	}
	for k, v := range s.returnItems {
		snap.returnItems[k] = append([]entity.ReturnItem(nil), v...)
	}
	for k, v := range s.exchangeItems {
		snap.exchangeItems[k] = append([]entity.ExchangeItem(nil), v...)
	}
	return snap
}

// restore vuelve al estado del snapshot (rollback).
func (s *Store) restore(snap *Store) {
	s.stock = snap.stock
	s.adjustments = snap.adjustments
	s.transfers = snap.transfers
	s.transferNos = snap.transferNos
	s.transactions = snap.transactions
	s.transactionNos = snap.transactionNos
	s.txItems = snap.txItems
	s.returns = snap.returns
	s.returnItems = snap.returnItems
	s.returnNos = snap.returnNos
	s.exchangeItems = snap.exchangeItems
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork ejecuta fn reteniendo el mutex del store; si fn falla (o el
// contexto está cancelado) restaura el snapshot previo, emulando el
// rollback transaccional.
type UnitOfWork struct {
	s *Store
}

// NewUnitOfWork construye la unidad de trabajo sobre el store.
func NewUnitOfWork(s *Store) *UnitOfWork {
	return &UnitOfWork{s: s}
}

// Run ejecuta fn con repos atados a la "transacción" (sin lock propio: el
// mutex ya lo retiene Run).
func (u *UnitOfWork) Run(ctx context.Context, fn func(r ports.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	snap := u.s.snapshot()
	repos := ports.TxRepos{
		Stock:        &StockRepo{s: u.s, tx: true},
		Adjustments:  &AdjustmentRepo{s: u.s, tx: true},
		Transfers:    &TransferRepo{s: u.s, tx: true},
		Transactions: &TransactionRepo{s: u.s, tx: true},
		Returns:      &ReturnRepo{s: u.s, tx: true},
	}
	if err := fn(repos); err != nil {
		u.s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		u.s.restore(snap)
		return err
	}
	return nil
}
