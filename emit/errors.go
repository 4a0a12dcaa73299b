package emit

import (
	"errors"
	"strconv"
)

// ErrUnsupportedParam is matched (errors.Is) when a generic parameter has no
// Go spelling (region and const parameters).
var ErrUnsupportedParam = errors.New("emit: generic parameter cannot be expressed in Go")

// ParamError reports a generic parameter that Go cannot express.
type ParamError struct {
	Type  string
	Param string
	Kind  string
}

// Error implements the error interface.
func (e ParamError) Error() string {
	// Example: emit: type "Ref": region parameter "a" cannot be expressed in Go
	return "emit: type " + strconv.Quote(e.Type) + ": " + e.Kind + " parameter " + strconv.Quote(e.Param) + " cannot be expressed in Go"
}

// Is makes ParamError match ErrUnsupportedParam.
func (e ParamError) Is(target error) bool { return target == ErrUnsupportedParam }

// ImportConflictError reports two imports sharing one identifier.
type ImportConflictError struct {
	Ident string
	Paths [2]string
}

// Error implements the error interface.
func (e ImportConflictError) Error() string {
	return "emit: identifier " + strconv.Quote(e.Ident) + " names both " +
		strconv.Quote(e.Paths[0]) + " and " + strconv.Quote(e.Paths[1])
}
