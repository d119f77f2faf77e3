package logic

import (
	"errors"

	"github.com/pokebattlelogger/dashboard-api/internal/fetch"
)

var (
	// ErrPageOutOfRange rejects a page beyond the known maximum without
	// fetching it.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrFormatNotChecked refuses a submission whose video has no passing
	// format check.
	ErrFormatNotChecked = errors.New("video format not checked or not valid")

	// ErrBusy suppresses a repeated action while the first is in flight.
	ErrBusy = fetch.ErrBusy

	ErrQueueFull            = errors.New("extraction queue full")
	ErrUnknownLabel         = errors.New("unknown pokemon name")
	ErrForeignImage         = errors.New("image does not belong to trainer")
	ErrStorageNotConfigured = errors.New("object storage not configured")
	ErrInvalidView          = errors.New("view must be selection or knockout")
	ErrUnknownColumn        = errors.New("unknown sort column")
)
