package usecase

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrUnknownSource      = errors.New("unknown source")
	ErrBatchAlreadyActive = errors.New("ingestion batch already running")
)
