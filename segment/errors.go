package segment

import "fmt"

// ErrInvalidRange is a named error type for segments with Start > End.
type ErrInvalidRange struct {
	Start Position // Offending start position
	End   Position // Offending end position
}

// Error returns the error message for an inverted segment range.
func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid segment range: start %d > end %d", e.Start, e.End)
}
