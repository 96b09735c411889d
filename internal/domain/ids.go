package domain

import "github.com/google/uuid"

// ValidID indica si id es un UUID canónico (8-4-4-4-12), el tipo de las columnas id de productos,
// unidades y movimientos. Los ids de usuario los emite el servicio de autenticación y no pasan por aquí.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
