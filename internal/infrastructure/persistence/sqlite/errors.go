package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/pspschool/studentms/internal/domain/school"
)

// classify maps a driver error to one of the school error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey,
			sqlite3.ErrConstraintUnique,
			sqlite3.ErrConstraintForeignKey:
			return school.E(op, school.ErrConflict, err)
		case sqlite3.ErrConstraintCheck:
			return school.E(op, school.ErrInvalidMarks, err)
		}
		if se.Code == sqlite3.ErrConstraint {
			return school.E(op, school.ErrConflict, err)
		}
	}

	return school.E(op, school.ErrStoreIO, err)
}

// IsConstraintViolation reports whether err is any SQLite constraint failure.
func IsConstraintViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
