package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPlayableStream means selection found no usable video or audio candidate.
	ErrNoPlayableStream = errors.New("no playable stream found")

	// ErrPlaylistNotSupported means a playlist URL was given where a single item is required.
	ErrPlaylistNotSupported = errors.New("playlist downloads are disabled")

	// ErrDurationExceeded means the item is longer than the configured ceiling.
	ErrDurationExceeded = errors.New("media duration exceeds the allowed maximum")

	// ErrNoSubtitles means neither authored nor auto-generated tracks exist for the language.
	ErrNoSubtitles = errors.New("no subtitles found")
)

// ExtractionError wraps a failure of the extraction collaborator
// (geo-block, removed video, network failure, unparseable output).
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ProcessStartError means the external tool failed to launch.
type ProcessStartError struct {
	Binary string
	Err    error
}

func (e *ProcessStartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Binary, e.Err)
}

func (e *ProcessStartError) Unwrap() error { return e.Err }

// DeliveryError means byte production failed after the job was accepted:
// the process exited non-zero after partial output, or file staging failed.
type DeliveryError struct {
	Stage string // "pipe" or "staged"
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery (%s): %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
