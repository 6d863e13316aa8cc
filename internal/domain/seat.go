package domain

import "fmt"

// ValidateRow checks a row number against a dome's row count.
func ValidateRow(row, rows int) error {
	if row < 1 || row > rows {
		return &FieldError{
			Field:   "row",
			Message: fmt.Sprintf("Row number must be in range [1, %d].", rows),
		}
	}
	return nil
}

// ValidateSeatNumber checks a seat number against a dome's seats-per-row.
func ValidateSeatNumber(seat, seatsInRow int) error {
	if seat < 1 || seat > seatsInRow {
		return &FieldError{
			Field:   "seat",
			Message: fmt.Sprintf("Seat number must be in range [1, %d].", seatsInRow),
		}
	}
	return nil
}

// ValidateSeat checks a (row, seat) pair against a dome's geometry. Pure, no
// I/O; callers run it before the transactional write, and the storage layer
// runs it again on its own write path.
func ValidateSeat(row, seat, rows, seatsInRow int) error {
	if err := ValidateRow(row, rows); err != nil {
		return err
	}
	return ValidateSeatNumber(seat, seatsInRow)
}
