package transport

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrTimeout = errors.New("transport: timeout waiting for terminator")
	ErrClosed  = errors.New("transport: closed")
)

// ConnectionError は、接続の確立に失敗したか、通信中に切断されたことを表します。
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Cause() error {
	return e.Err
}

// IsConnectionError は、err が ConnectionError を含むかを判定します。
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
