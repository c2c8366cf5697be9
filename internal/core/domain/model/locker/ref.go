package locker

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// Ref addresses a compartment by its board identifier and its number within
// that board. Locker numbers are only unique inside one container.
type Ref struct {
	BoardID string
	Number  string
}

func NewRef(boardID, number string) (Ref, error) {
	ref := Ref{
		BoardID: strings.TrimSpace(boardID),
		Number:  strings.TrimSpace(number),
	}
	if err := ref.Validate(); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

func (r Ref) Validate() error {
	if r.BoardID == "" {
		return errs.NewValueIsRequiredError("boardId")
	}
	if r.Number == "" {
		return errs.NewValueIsRequiredError("lockerNumber")
	}
	return nil
}

func (r Ref) String() string {
	return r.BoardID + "/" + r.Number
}

// NumberForIndex returns the printed label of the door at a zero-based index,
// e.g. index 0 is "L001".
func NumberForIndex(index int) string {
	return fmt.Sprintf("L%03d", index+1)
}
