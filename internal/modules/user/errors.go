package user

import "errors"

var (
	ErrUserInternal = errors.New("internal error")
)
