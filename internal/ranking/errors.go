package ranking

import "fmt"

// MissingColumnError reports an input table without a required column
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("ranking error: input has no %q column", e.Column)
}
