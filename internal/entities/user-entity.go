// Файл: internal/entities/user-entity.go
package entities

import "hospital-equipment/pkg/types"

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"`
	Role     string `json:"role" db:"role"`
	IsActive bool   `json:"is_active" db:"is_active"`

	types.BaseEntity
}
