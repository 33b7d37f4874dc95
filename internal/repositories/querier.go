package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// isUniqueViolation сообщает, нарушено ли ограничение уникальности constraint.
func isUniqueViolation(err error, constraint string) bool {
	return isConstraintViolation(err, uniqueViolationCode, constraint)
}

// isForeignKeyViolation сообщает, что внешний ключ constraint ссылается на несуществующую строку.
func isForeignKeyViolation(err error, constraint string) bool {
	return isConstraintViolation(err, foreignKeyViolationCode, constraint)
}

func isConstraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == code && pgErr.ConstraintName == constraint
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern экранирует спецсимволы LIKE и оборачивает строку в %.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
