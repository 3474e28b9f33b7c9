package lead

import "errors"

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrUnknownField  = errors.New("unknown lead field")
	ErrInvalidRevert = errors.New("value cannot be applied to field")
)
