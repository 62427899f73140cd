package exception

import "errors"

// Feed errors
var (
	ErrFeedEmptyPath     = errors.New("feed: empty socket path")
	ErrFeedNilHandler    = errors.New("feed: nil handler")
	ErrFeedClosed        = errors.New("feed: closed")
	ErrFeedBusy          = errors.New("feed: already observed")
	ErrFeedPathNotSocket = errors.New("feed: path exists and is not a socket")
	ErrFeedMalformed     = errors.New("feed: malformed record")
)
