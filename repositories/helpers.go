package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// constraintViolation returns the postgres error code and constraint name, if err is one.
func constraintViolation(err error) (code string, constraint string, ok bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", "", false
	}
	return string(pqErr.Code), pqErr.Constraint, true
}
