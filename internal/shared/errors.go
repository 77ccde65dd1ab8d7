package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrLibraryPath   = fmt.Errorf("rekordbox library not found")

	// Connection errors
	ErrNotConnected   = fmt.Errorf("database not connected")
	ErrConnectionLost = fmt.Errorf("database connection lost")

	// Library errors
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrMutationFailed   = fmt.Errorf("mutation failed")
	ErrReadOnlySource   = fmt.Errorf("source is read-only")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
