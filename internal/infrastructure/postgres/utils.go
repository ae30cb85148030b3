package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), ej. cantidad negativa.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514" // check_violation
	}
	return false
}

// nullString convierte "" en NULL para columnas opcionales.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fromNull convierte NULL en "".
func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pageArgs normaliza límite y desplazamiento de listados.
func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// isUUID evita consultar columnas UUID con texto arbitrario: un id mal formado equivale a "no existe".
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
