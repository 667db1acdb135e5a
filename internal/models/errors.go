package models

import "errors"

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrSettingNotFound    = errors.New("setting not found")
)
