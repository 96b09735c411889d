package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Motor de asignación de unidades.
	ErrUnitQuantityMustBeOne = errors.New("los productos con unidades rastreadas se asignan de a una unidad")
	ErrNoUnitInStock         = errors.New("no hay unidades en stock")
	ErrUnitRaceCondition     = errors.New("la unidad fue tomada por otra operación concurrente")
	ErrInvalidTransition     = errors.New("transición no válida para el estado actual de la unidad")
)
