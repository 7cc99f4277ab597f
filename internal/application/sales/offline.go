package sales

import (
	"context"
	"errors"

	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// Replay reconcilia un lote de ventas generadas offline. Cada elemento se
// procesa de forma independiente: un fallo individual se reporta en su
// resultado y el lote sigue. Una venta cuyo id o número ya existe se marca
// skipped (el cliente puede reenviar el lote completo sin duplicar).
func (uc *SalesUseCase) Replay(ctx context.Context, actor entity.Actor, in dto.SyncTransactionsRequest) (*dto.SyncTransactionsResponse, error) {
	if len(in.Transactions) == 0 {
		return nil, domain.ErrInvalidInput
	}
	resp := &dto.SyncTransactionsResponse{Results: make([]dto.ReplayResult, 0, len(in.Transactions))}

	for _, offline := range in.Transactions {
		result := dto.ReplayResult{ID: offline.ID, TransactionNo: offline.TransactionNo}

		if offline.ID == "" || offline.TransactionNo == "" {
			result.Status = "failed"
			result.Error = "id y transaction_no son obligatorios"
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}

		exists, err := uc.txRepo.Exists(ctx, offline.ID, offline.TransactionNo)
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}
		if exists {
			result.Status = "skipped"
			resp.Skipped++
			resp.Results = append(resp.Results, result)
			continue
		}

		occurredAt := offline.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = uc.now()
		}
		req := dto.CreateTransactionRequest{
			BranchID:            offline.BranchID,
			Items:               offline.Items,
			Discount:            offline.Discount,
			Tax:                 offline.Tax,
			PaymentMethod:       offline.PaymentMethod,
			PaymentAmount:       offline.PaymentAmount,
			SecondPaymentMethod: offline.SecondPaymentMethod,
			SecondPaymentAmount: offline.SecondPaymentAmount,
		}
		_, err = uc.create(ctx, actor, req, offline.ID, offline.TransactionNo, occurredAt)
		switch {
		case err == nil:
			result.Status = "created"
			resp.Created++
		case errors.Is(err, domain.ErrDuplicate):
			// carrera con otro replay del mismo lote
			result.Status = "skipped"
			resp.Skipped++
		default:
			result.Status = "failed"
			result.Error = replayErrorMessage(err)
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}

	uc.audit.Record(entity.AuditLog{
		CompanyID:   actor.CompanyID,
		Action:      "offline_sync",
		EntityType:  "transaction",
		Description: "replay de lote offline",
		Metadata:    map[string]any{"created": resp.Created, "skipped": resp.Skipped, "failed": resp.Failed},
		ActorID:     actor.UserID,
		ActorIP:     actor.IP,
		CreatedAt:   uc.now(),
	})
	return resp, nil
}

// replayErrorMessage mensajes estables por elemento, sin filtrar detalles
// internos del store.
func replayErrorMessage(err error) string {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return insufficient.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return "venta inválida"
	case errors.Is(err, domain.ErrNotFound):
		return "sucursal o variante inexistente"
	case errors.Is(err, domain.ErrForbidden):
		return "fuera del alcance de la empresa"
	default:
		return "error interno"
	}
}
