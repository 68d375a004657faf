package domain

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment_not_found")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidTitle        = errors.New("invalid_title")
)
