//go:build !linux

package transport

import (
	"os"
	"time"
)

func setDriverTimeout(f *os.File, timeout time.Duration) error {
	return nil
}
