package pipeline

import "errors"

var (
	// ErrSourceUnavailable covers authentication, network and permission
	// failures reaching the store.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrTableNotFound means the spreadsheet is reachable but has no tab with
	// the requested name.
	ErrTableNotFound = errors.New("table not found")
)
