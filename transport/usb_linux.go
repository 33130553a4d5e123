package transport

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// usbtmcIoctlSetTimeout は、USBTMCドライバの USBTMC_IOCTL_SET_TIMEOUT です。
const usbtmcIoctlSetTimeout = 0x40045b0a

// setDriverTimeout は、USBTMCドライバの読み書きのタイムアウトをミリ秒単位で設定します。
func setDriverTimeout(f *os.File, timeout time.Duration) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return errors.WithStack(err)
	}
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetPointerInt(int(fd), usbtmcIoctlSetTimeout, int(timeout/time.Millisecond))
	}); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ioctlErr)
}
