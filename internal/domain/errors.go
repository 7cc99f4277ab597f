package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists  = errors.New("el email ya está registrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrExceedsReturnable   = errors.New("cantidad supera lo retornable")
	ErrReturnWindowExpired = errors.New("plazo de devolución vencido")
	ErrAlreadyProcessed    = errors.New("ya fue procesado")
	ErrAlreadyCancelled    = errors.New("ya fue cancelado")
)

// InsufficientStockError envuelve ErrInsufficientStock con la identidad del ítem
// y la cantidad disponible, para que el caller sepa qué línea falló.
type InsufficientStockError struct {
	VariantID string
	BranchID  string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para variante %s en sucursal %s: solicitado %d, disponible %d",
		e.VariantID, e.BranchID, e.Requested, e.Available)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
