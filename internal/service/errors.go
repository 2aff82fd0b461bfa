package service

import (
	"errors"

	"pixel-place/internal/domain"
)

var (
	ErrOutOfBounds        = domain.ErrOutOfBounds
	ErrInvalidColor       = domain.ErrInvalidColor
	ErrStorageFailure     = errors.New("tile storage failure")
	ErrHistoryUnavailable = errors.New("commit history is not enabled")
	ErrInternalServer     = errors.New("internal server error")
)
