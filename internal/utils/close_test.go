package utils

import (
	"errors"
	"testing"

	"github.com/tofixx/mymovieflip/internal/logger"
)

type closer struct {
	calls int
	err   error
}

func (c *closer) Close() error {
	c.calls++
	return c.err
}

func TestClose(t *testing.T) {
	ok := &closer{}
	Close(ok)
	MustClose(ok, logger.Nop(), "ok")
	if ok.calls != 2 {
		t.Errorf("calls = %d, want 2", ok.calls)
	}

	failing := &closer{err: errors.New("flush failed")}
	MustClose(failing, logger.Nop(), "failing")
	if failing.calls != 1 {
		t.Errorf("calls = %d, want 1", failing.calls)
	}
}
