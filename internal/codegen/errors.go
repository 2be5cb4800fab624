package codegen

import (
	"fmt"

	"fortio.org/safecast"
)

// InternalError reports SSA the generator cannot encode. It always means a
// compiler defect, never a problem in the user's program.
type InternalError struct {
	Unit    string
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("codegen: internal error in %s: %s", e.Unit, e.Message)
}

func (g *generator) internalf(format string, args ...any) {
	panic(&InternalError{Unit: g.f.Name, Message: fmt.Sprintf(format, args...)})
}

// word converts n to an instruction word.
func (g *generator) word(n int) int32 {
	w, err := safecast.Conv[int32](n)
	if err != nil {
		g.internalf("operand %d: %v", n, err)
	}
	return w
}

func recoverInternal(err *error) {
	if r := recover(); r != nil {
		ie, ok := r.(*InternalError)
		if !ok {
			panic(r)
		}
		*err = ie
	}
}
