package repository

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// UserRepository puerto de lectura de principales (la administración de usuarios es externa).
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
