// Package audit entrega las entradas de auditoría de forma asíncrona. El
// motor nunca espera por el log: Record encola y retorna; una goroutine
// escribe en la base por detrás.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

var _ ports.AuditTrail = (*AsyncRecorder)(nil)

const writeTimeout = 5 * time.Second

// AsyncRecorder implementa AuditTrail con un buffer acotado. Si el buffer
// está lleno la entrada se descarta con un warning: at-most-once, el log de
// auditoría jamás frena ni revierte una operación del motor.
type AsyncRecorder struct {
	repo    repository.AuditLogRepository
	log     *logger.Logger
	entries chan entity.AuditLog
	done    chan struct{}
}

// NewAsyncRecorder arranca la goroutine de escritura con un buffer de
// bufSize entradas.
func NewAsyncRecorder(repo repository.AuditLogRepository, log *logger.Logger, bufSize int) *AsyncRecorder {
	if bufSize <= 0 {
		bufSize = 256
	}
	r := &AsyncRecorder{
		repo:    repo,
		log:     log,
		entries: make(chan entity.AuditLog, bufSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record encola la entrada sin bloquear; descarta si el buffer está lleno.
func (r *AsyncRecorder) Record(entry entity.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	select {
	case r.entries <- entry:
	default:
		r.log.Warn().Str("action", entry.Action).Msg("buffer de auditoría lleno; entrada descartada")
	}
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for entry := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Create(ctx, &entry); err != nil {
			r.log.Error().Err(err).Str("action", entry.Action).Msg("no se pudo escribir la entrada de auditoría")
		}
		cancel()
	}
}

// Close deja de aceptar entradas y espera a que se drene el buffer.
func (r *AsyncRecorder) Close() {
	close(r.entries)
	<-r.done
}
