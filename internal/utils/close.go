package utils

import (
	"io"

	"github.com/tofixx/mymovieflip/internal/logger"
)

// Close closes c and ignores any error. For response bodies and other
// best-effort cleanup in defer.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs a failure under what. For resources whose
// close flushes data, such as the store.
func MustClose(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, logger.Error(err))
		return
	}
	log.Debug(what + " closed")
}
