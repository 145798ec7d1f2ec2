package services

import "errors"

// Sentinel errors returned by the service layer. Controllers translate
// them to HTTP status codes; services never see gin.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrForbidden  = errors.New("operation not permitted")
	ErrSelfAction = errors.New("cannot perform this action on yourself")
	ErrConflict   = errors.New("resource already exists")
	ErrUpstream   = errors.New("upstream provider error")
	ErrValidation = errors.New("invalid input")
)
