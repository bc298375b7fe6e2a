package task

import "errors"

var (
	ErrTaskInternal = errors.New("internal error")
)
