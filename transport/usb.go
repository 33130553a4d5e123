package transport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/but80/scpilab/log"
	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

const (
	defaultBaudRate = 115200
	// pollTimeoutMsec は、仮想COMポートの1回の読み出しが空で戻るまでの時間です。
	pollTimeoutMsec = 100
)

// BaudRates は、ボーレートの選択肢です。
var BaudRates = []int{9600, 19200, 38400, 57600, 115200}

// IsValidBaudRate は、指定した整数値がボーレートとして使用可能かを判定します。
func IsValidBaudRate(r int) bool {
	for _, v := range BaudRates {
		if v == r {
			return true
		}
	}
	return false
}

// BaudRateList は、ボーレートの選択肢を一覧表示します。
func BaudRateList() string {
	s := fmt.Sprint(BaudRates)
	return "(" + strings.Replace(s[1:len(s)-1], " ", "|", -1) + ")"
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// USB は、USB接続の計測器へのトランスポートです。
// /dev/usbtmc* はカーネルのUSBTMCドライバのデバイスとして、
// それ以外は仮想COMポートとして開きます。
type USB struct {
	device string
	opts   Options
	dev    io.ReadWriteCloser
}

// NewUSB は、未接続の USB を作成します。
func NewUSB(device string, opts Options) *USB {
	if opts.BaudRate <= 0 {
		opts.BaudRate = defaultBaudRate
	}
	return &USB{
		device: device,
		opts:   opts,
	}
}

func (u *USB) ReadMode() ReadMode {
	return u.opts.ReadMode
}

func (u *USB) Kind() Kind {
	return KindUSB
}

func (u *USB) Framing() Framing {
	if u.opts.Terminator == "" {
		return RawFraming
	}
	return Framing{Terminator: u.opts.Terminator, Trim: true}
}

func (u *USB) isUSBTMC() bool {
	return strings.HasPrefix(filepath.Base(u.device), "usbtmc")
}

// Connect は、デバイスを開きます。
func (u *USB) Connect() error {
	if u.dev != nil {
		return nil
	}
	log.Infof("opening %s", u.device)
	var err error
	if u.isUSBTMC() {
		var f *os.File
		f, err = os.OpenFile(u.device, os.O_RDWR, 0)
		if err == nil {
			if err := setDriverTimeout(f, u.opts.timeout()); err != nil {
				log.Debugf("cannot set driver timeout of %s: %s", u.device, err)
			}
			u.dev = f
		}
	} else {
		if !IsValidBaudRate(u.opts.BaudRate) {
			return errors.Errorf("invalid baud rate %d %s", u.opts.BaudRate, BaudRateList())
		}
		u.dev, err = serial.Open(serial.OpenOptions{
			PortName:              u.device,
			BaudRate:              uint(u.opts.BaudRate),
			DataBits:              8,
			StopBits:              1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: pollTimeoutMsec,
			MinimumReadSize:       0,
		})
	}
	if err != nil {
		u.dev = nil
		return errors.WithStack(&ConnectionError{Op: "open", Addr: u.device, Err: err})
	}
	return nil
}

func (u *USB) Send(b []byte) error {
	if u.dev == nil {
		return errors.WithStack(ErrClosed)
	}
	if _, err := u.dev.Write(b); err != nil {
		return errors.WithStack(&ConnectionError{Op: "write", Addr: u.device, Err: err})
	}
	return nil
}

// Receive は、'\n' で終わるブロックを受信するまで maxBytes ずつ読み出します。
// 空の読み出しはタイムアウトまで繰り返します。
func (u *USB) Receive(maxBytes int) ([]byte, error) {
	if u.dev == nil {
		return nil, errors.WithStack(ErrClosed)
	}
	deadline := time.Now().Add(u.opts.timeout())
	if d, ok := u.dev.(readDeadliner); ok {
		// ポーリングできないデバイスでは失敗するので、下のループでの判定に任せます。
		_ = d.SetReadDeadline(deadline)
	}
	return readUntilTerminator(func(p []byte) (int, error) {
		n, err := u.dev.Read(p)
		if 0 < n {
			return n, nil
		}
		if err != nil && err != io.EOF {
			if errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, os.ErrDeadlineExceeded) {
				return 0, errors.Wrapf(ErrTimeout, "read %s", u.device)
			}
			return 0, errors.WithStack(&ConnectionError{Op: "read", Addr: u.device, Err: err})
		}
		if time.Now().After(deadline) {
			return 0, errors.Wrapf(ErrTimeout, "read %s", u.device)
		}
		return 0, nil
	}, maxBytes, u.opts.ReadMode)
}

func (u *USB) Close() error {
	if u.dev == nil {
		return nil
	}
	log.Infof("closing %s", u.device)
	err := u.dev.Close()
	u.dev = nil
	return errors.WithStack(err)
}
