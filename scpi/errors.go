package scpi

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrOperationTimeout は、*OPC? のポーリングが期限内に完了を観測できなかったことを表します。
	ErrOperationTimeout = errors.New("scpi: operation did not complete in time")
	// ErrErrorQueueNotDrained は、上限件数まで取り出してもエラーキューが空にならなかったことを表します。
	ErrErrorQueueNotDrained = errors.New("scpi: error queue not drained")
)

// DecodeError は、応答を期待した型として解釈できなかったことを表します。
type DecodeError struct {
	Response string
	Want     string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scpi: cannot decode %q as %s: %v", e.Response, e.Want, e.Err)
	}
	return fmt.Sprintf("scpi: cannot decode %q as %s", e.Response, e.Want)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError は、err が DecodeError を含むかを判定します。
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// InstrumentError は、SYST:ERR? で取り出した計測器側のエラーです。
type InstrumentError struct {
	Code    int
	Message string
}

func (e *InstrumentError) Error() string {
	return fmt.Sprintf("scpi: instrument error %d: %s", e.Code, e.Message)
}
