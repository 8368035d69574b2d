package domain

import "errors"

var (
	ErrBotNotFound  = errors.New("bot not found")
	ErrBotExists    = errors.New("bot is already listed")
	ErrUserNotFound = errors.New("user not found")
)
