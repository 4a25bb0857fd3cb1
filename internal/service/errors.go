package service

import "errors"

// ErrInvalidArgument marks a request the caller can fix
var ErrInvalidArgument = errors.New("invalid argument")
