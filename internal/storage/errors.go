package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("duplicate record")
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = pq.ErrorCode("23505")

// translate maps driver and gorm errors onto the package sentinels and
// prefixes the operation name.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, ErrConflict, pqErr.Constraint)
	}

	return fmt.Errorf("%s: %w", op, err)
}
