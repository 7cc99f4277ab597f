package sales

// SetSuffix reemplaza el generador de sufijos de numeración para poder
// forzar colisiones del índice único desde los tests.
func (uc *SalesUseCase) SetSuffix(fn func() int) { uc.suffix = fn }
