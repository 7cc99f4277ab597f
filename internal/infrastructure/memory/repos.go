package memory

import (
	"context"
	"sort"

	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// lockIf toma el mutex salvo que el repo esté atado a una unidad de trabajo
// (que ya lo retiene). Uso: defer r.s.lockIf(r.tx)().
func (s *Store) lockIf(tx bool) func() {
	if tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ---- stock ----

var _ repository.StockRepository = (*StockRepo)(nil)

type StockRepo struct {
	s  *Store
	tx bool
}

func NewStockRepository(s *Store) *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) Get(_ context.Context, variantID, branchID string) (*entity.StockRecord, error) {
	defer r.s.lockIf(r.tx)()
	if rec, ok := r.s.stock[stockKey(variantID, branchID)]; ok {
		return &rec, nil
	}
	return nil, nil
}

// GetForUpdate equivale a Get: la exclusión la da el mutex del store.
func (r *StockRepo) GetForUpdate(ctx context.Context, variantID, branchID string) (*entity.StockRecord, error) {
	return r.Get(ctx, variantID, branchID)
}

func (r *StockRepo) Upsert(_ context.Context, stock *entity.StockRecord) error {
	defer r.s.lockIf(r.tx)()
	r.s.stock[stockKey(stock.VariantID, stock.BranchID)] = *stock
	return nil
}

func (r *StockRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*entity.StockRecord, error) {
	defer r.s.lockIf(r.tx)()
	var list []*entity.StockRecord
	for _, rec := range r.s.stock {
		if rec.BranchID == branchID {
			rec := rec
			list = append(list, &rec)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].VariantID < list[j].VariantID })
	return paginate(list, limit, offset), nil
}

// ---- ajustes ----

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

type AdjustmentRepo struct {
	s  *Store
	tx bool
}

func NewAdjustmentRepository(s *Store) *AdjustmentRepo { return &AdjustmentRepo{s: s} }

func (r *AdjustmentRepo) Create(_ context.Context, adj *entity.StockAdjustment) error {
	defer r.s.lockIf(r.tx)()
	r.s.adjustments = append(r.s.adjustments, *adj)
	return nil
}

func (r *AdjustmentRepo) ListByStock(_ context.Context, variantID, branchID string, limit, offset int) ([]*entity.StockAdjustment, error) {
	defer r.s.lockIf(r.tx)()
	return r.filter(func(a entity.StockAdjustment) bool {
		return a.VariantID == variantID && a.BranchID == branchID
	}, limit, offset), nil
}

func (r *AdjustmentRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*entity.StockAdjustment, error) {
	defer r.s.lockIf(r.tx)()
	return r.filter(func(a entity.StockAdjustment) bool { return a.BranchID == branchID }, limit, offset), nil
}

func (r *AdjustmentRepo) filter(keep func(entity.StockAdjustment) bool, limit, offset int) []*entity.StockAdjustment {
	var list []*entity.StockAdjustment
	for i := range r.s.adjustments {
		if keep(r.s.adjustments[i]) {
			a := r.s.adjustments[i]
			list = append(list, &a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset)
}

// ---- transferencias ----

var _ repository.TransferRepository = (*TransferRepo)(nil)

type TransferRepo struct {
	s  *Store
	tx bool
}

func NewTransferRepository(s *Store) *TransferRepo { return &TransferRepo{s: s} }

func (r *TransferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	defer r.s.lockIf(r.tx)()
	if _, dup := r.s.transferNos[t.TransferNo]; dup {
		return domain.ErrDuplicate
	}
	if _, dup := r.s.transfers[t.ID]; dup {
		return domain.ErrDuplicate
	}
	r.s.transfers[t.ID] = *t
	r.s.transferNos[t.TransferNo] = t.ID
	return nil
}

func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	defer r.s.lockIf(r.tx)()
	if t, ok := r.s.transfers[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *TransferRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepo) UpdateStatus(_ context.Context, t *entity.StockTransfer) error {
	defer r.s.lockIf(r.tx)()
	r.s.transfers[t.ID] = *t
	return nil
}

func (r *TransferRepo) ListByCompany(_ context.Context, companyID, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	defer r.s.lockIf(r.tx)()
	var list []*entity.StockTransfer
	for _, t := range r.s.transfers {
		if t.CompanyID == companyID && (status == "" || t.Status == status) {
			t := t
			list = append(list, &t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

// ---- ventas ----

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

type TransactionRepo struct {
	s  *Store
	tx bool
}

func NewTransactionRepository(s *Store) *TransactionRepo { return &TransactionRepo{s: s} }

func (r *TransactionRepo) Create(_ context.Context, t *entity.Transaction) error {
	defer r.s.lockIf(r.tx)()
	if _, dup := r.s.transactions[t.ID]; dup {
		return domain.ErrDuplicate
	}
	if _, dup := r.s.transactionNos[t.TransactionNo]; dup {
		return domain.ErrDuplicate
	}
	saved := *t
	saved.Items = nil
	r.s.transactions[t.ID] = saved
	r.s.transactionNos[t.TransactionNo] = t.ID
	return nil
}

func (r *TransactionRepo) CreateItem(_ context.Context, item *entity.TransactionItem) error {
	defer r.s.lockIf(r.tx)()
	r.s.txItems[item.TransactionID] = append(r.s.txItems[item.TransactionID], *item)
	return nil
}

func (r *TransactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	defer r.s.lockIf(r.tx)()
	if t, ok := r.s.transactions[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *TransactionRepo) GetItems(_ context.Context, transactionID string) ([]entity.TransactionItem, error) {
	defer r.s.lockIf(r.tx)()
	return append([]entity.TransactionItem(nil), r.s.txItems[transactionID]...), nil
}

func (r *TransactionRepo) UpdateStatus(_ context.Context, t *entity.Transaction) error {
	defer r.s.lockIf(r.tx)()
	saved := *t
	saved.Items = nil
	r.s.transactions[t.ID] = saved
	return nil
}

func (r *TransactionRepo) Exists(_ context.Context, id, transactionNo string) (bool, error) {
	defer r.s.lockIf(r.tx)()
	if _, ok := r.s.transactions[id]; ok {
		return true, nil
	}
	_, ok := r.s.transactionNos[transactionNo]
	return ok, nil
}

func (r *TransactionRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*entity.Transaction, error) {
	defer r.s.lockIf(r.tx)()
	var list []*entity.Transaction
	for _, t := range r.s.transactions {
		if t.BranchID == branchID {
			t := t
			list = append(list, &t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

// ---- devoluciones ----

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

type ReturnRepo struct {
	s  *Store
	tx bool
}

func NewReturnRepository(s *Store) *ReturnRepo { return &ReturnRepo{s: s} }

func (r *ReturnRepo) Create(_ context.Context, ret *entity.Return) error {
	defer r.s.lockIf(r.tx)()
	if _, dup := r.s.returnNos[ret.ReturnNo]; dup {
		return domain.ErrDuplicate
	}
	if _, dup := r.s.returns[ret.ID]; dup {
		return domain.ErrDuplicate
	}
	saved := *ret
	saved.Items = nil
	saved.ExchangeItems = nil
	r.s.returns[ret.ID] = saved
	r.s.returnNos[ret.ReturnNo] = ret.ID
	return nil
}

func (r *ReturnRepo) CreateItem(_ context.Context, item *entity.ReturnItem) error {
	defer r.s.lockIf(r.tx)()
	r.s.returnItems[item.ReturnID] = append(r.s.returnItems[item.ReturnID], *item)
	return nil
}

func (r *ReturnRepo) CreateExchangeItem(_ context.Context, item *entity.ExchangeItem) error {
	defer r.s.lockIf(r.tx)()
	r.s.exchangeItems[item.ReturnID] = append(r.s.exchangeItems[item.ReturnID], *item)
	return nil
}

func (r *ReturnRepo) GetByID(_ context.Context, id string) (*entity.Return, error) {
	defer r.s.lockIf(r.tx)()
	if ret, ok := r.s.returns[id]; ok {
		return &ret, nil
	}
	return nil, nil
}

func (r *ReturnRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.GetByID(ctx, id)
}

func (r *ReturnRepo) GetItems(_ context.Context, returnID string) ([]entity.ReturnItem, error) {
	defer r.s.lockIf(r.tx)()
	return append([]entity.ReturnItem(nil), r.s.returnItems[returnID]...), nil
}

func (r *ReturnRepo) GetExchangeItems(_ context.Context, returnID string) ([]entity.ExchangeItem, error) {
	defer r.s.lockIf(r.tx)()
	return append([]entity.ExchangeItem(nil), r.s.exchangeItems[returnID]...), nil
}

func (r *ReturnRepo) UpdateStatus(_ context.Context, ret *entity.Return) error {
	defer r.s.lockIf(r.tx)()
	saved := *ret
	saved.Items = nil
	saved.ExchangeItems = nil
	r.s.returns[ret.ID] = saved
	return nil
}

func (r *ReturnRepo) SumReturnedByTransaction(_ context.Context, transactionID string) (map[string]int64, error) {
	defer r.s.lockIf(r.tx)()
	sums := make(map[string]int64)
	for _, ret := range r.s.returns {
		if ret.TransactionID != transactionID {
			continue
		}
		if ret.Status != entity.ReturnStatusPending && ret.Status != entity.ReturnStatusCompleted {
			continue
		}
		for _, item := range r.s.returnItems[ret.ID] {
			sums[item.TransactionItemID] += item.Quantity
		}
	}
	return sums, nil
}

func (r *ReturnRepo) ListByCompany(_ context.Context, companyID, status string, limit, offset int) ([]*entity.Return, error) {
	defer r.s.lockIf(r.tx)()
	var list []*entity.Return
	for _, ret := range r.s.returns {
		if ret.CompanyID == companyID && (status == "" || ret.Status == status) {
			ret := ret
			list = append(list, &ret)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

// ---- catálogo y soporte ----

var _ repository.VariantRepository = (*VariantRepo)(nil)

type VariantRepo struct {
	s *Store
}

func NewVariantRepository(s *Store) *VariantRepo { return &VariantRepo{s: s} }

func (r *VariantRepo) Create(_ context.Context, v *entity.Variant) error {
	defer r.s.lockIf(false)()
	for _, existing := range r.s.variants {
		if existing.CompanyID == v.CompanyID && existing.SKU == v.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.variants[v.ID] = *v
	return nil
}

func (r *VariantRepo) GetByID(_ context.Context, id string) (*entity.Variant, error) {
	defer r.s.lockIf(false)()
	if v, ok := r.s.variants[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (r *VariantRepo) GetBySKU(_ context.Context, companyID, sku string) (*entity.Variant, error) {
	defer r.s.lockIf(false)()
	for _, v := range r.s.variants {
		if v.CompanyID == companyID && v.SKU == sku {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

func (r *VariantRepo) Update(_ context.Context, v *entity.Variant) error {
	defer r.s.lockIf(false)()
	r.s.variants[v.ID] = *v
	return nil
}

func (r *VariantRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Variant, error) {
	defer r.s.lockIf(false)()
	var list []*entity.Variant
	for _, v := range r.s.variants {
		if v.CompanyID == companyID {
			v := v
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return paginate(list, limit, offset), nil
}

var _ repository.BranchRepository = (*BranchRepo)(nil)

type BranchRepo struct {
	s *Store
}

func NewBranchRepository(s *Store) *BranchRepo { return &BranchRepo{s: s} }

func (r *BranchRepo) Create(_ context.Context, b *entity.Branch) error {
	defer r.s.lockIf(false)()
	r.s.branches[b.ID] = *b
	return nil
}

func (r *BranchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	defer r.s.lockIf(false)()
	if b, ok := r.s.branches[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *BranchRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Branch, error) {
	defer r.s.lockIf(false)()
	var list []*entity.Branch
	for _, b := range r.s.branches {
		if b.CompanyID == companyID {
			b := b
			list = append(list, &b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.lockIf(false)()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.s.lockIf(false)()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.s.lockIf(false)()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetByEmailAndCompany(_ context.Context, email, companyID string) (*entity.User, error) {
	defer r.s.lockIf(false)()
	for _, u := range r.s.users {
		if u.Email == email && u.CompanyID == companyID {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

type CompanyRepo struct {
	s *Store
}

func NewCompanyRepository(s *Store) *CompanyRepo { return &CompanyRepo{s: s} }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	defer r.s.lockIf(false)()
	r.s.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	defer r.s.lockIf(false)()
	if c, ok := r.s.companies[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	defer r.s.lockIf(false)()
	var list []*entity.Company
	for _, c := range r.s.companies {
		c := c
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return paginate(list, limit, offset), nil
}

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

type AuditLogRepo struct {
	s *Store
}

func NewAuditLogRepository(s *Store) *AuditLogRepo { return &AuditLogRepo{s: s} }

func (r *AuditLogRepo) Create(_ context.Context, l *entity.AuditLog) error {
	defer r.s.lockIf(false)()
	r.s.auditLogs = append(r.s.auditLogs, *l)
	return nil
}

func (r *AuditLogRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.AuditLog, error) {
	defer r.s.lockIf(false)()
	var list []*entity.AuditLog
	for i := range r.s.auditLogs {
		if r.s.auditLogs[i].CompanyID == companyID {
			l := r.s.auditLogs[i]
			list = append(list, &l)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}
