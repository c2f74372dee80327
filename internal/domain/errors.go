package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidOrder     = errors.New("invalid order parameters")
	ErrSigningFailed    = errors.New("signing failed")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	ErrDexLegFailed     = errors.New("dex leg failed")
	ErrOneSidedExposure = errors.New("one-sided exposure: dex leg filled, cex leg failed")
)
