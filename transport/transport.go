// Package transport は、計測器との間でバイト列を送受信する3種類の経路
// (TCPソケット、USB、Telnet) を同じインタフェースで扱います。
package transport

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultPort は、SCPI-raw の標準ポートです。
	DefaultPort = 5025
	// DefaultTimeout は、受信タイムアウトの既定値です。
	DefaultTimeout = 5 * time.Second
	// DefaultReadSize は、1回の読み出しで要求するバイト数の既定値です。
	DefaultReadSize = 64
)

// Kind は、トランスポートの種類です。
type Kind int

const (
	KindSocket Kind = iota
	KindUSB
	KindTelnet
)

func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "socket"
	case KindUSB:
		return "usb"
	case KindTelnet:
		return "telnet"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind は、設定ファイル上の名前から Kind を得ます。
func ParseKind(s string) (Kind, error) {
	switch s {
	case "socket", "tcp", "tcpip":
		return KindSocket, nil
	case "usb", "usbtmc":
		return KindUSB, nil
	case "telnet":
		return KindTelnet, nil
	}
	return 0, errors.Errorf("unknown transport %q", s)
}

// Framing は、送信フレームの組み立て規則です。
type Framing struct {
	// Terminator は、フレーム末尾に付加する行末です。
	Terminator string
	// Trim が true のとき、パラメータ前後の空白を取り除きます。
	Trim bool
}

var (
	// LineFraming は、ソケットおよびTelnet用のフレーミングです。
	LineFraming = Framing{Terminator: "\r\n"}
	// RawFraming は、USB計測器への生書き込み用のフレーミングです。
	RawFraming = Framing{Terminator: "", Trim: true}
)

// ReadMode は、複数チャンクにまたがる応答の扱いです。
type ReadMode int

const (
	// ReadAccumulate は、受信したチャンクをすべて連結して返します。
	ReadAccumulate ReadMode = iota
	// ReadLastChunk は、最後に受信したチャンクのみを返します。
	ReadLastChunk
)

// ReadModeOf は、t が複数チャンクの応答をどう扱うかを返します。
// ReadMode を持たないトランスポートは ReadAccumulate とみなします。
func ReadModeOf(t Transport) ReadMode {
	if r, ok := t.(interface{ ReadMode() ReadMode }); ok {
		return r.ReadMode()
	}
	return ReadAccumulate
}

// Options は、トランスポートの生成時に指定するオプションです。
type Options struct {
	Timeout  time.Duration
	ReadMode ReadMode
	// BaudRate は、USB仮想COMポートの計測器でのみ使用します。
	BaudRate int
	// Terminator は、USB計測器への書き込みの末尾に付加する行末です。空なら何も付加しません。
	Terminator string
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Transport は、計測器とのバイト列の送受信経路です。
type Transport interface {
	Kind() Kind
	Framing() Framing
	Connect() error
	Send(b []byte) error
	Receive(maxBytes int) ([]byte, error)
	Close() error
}

// Open は、種類に応じたトランスポートを生成して接続します。
// address は、socket/telnet ではホスト名、usb ではデバイスパスです。
func Open(kind Kind, address string, port int, opts Options) (Transport, error) {
	var t Transport
	switch kind {
	case KindSocket:
		t = NewSocket(address, port, opts)
	case KindUSB:
		t = NewUSB(address, opts)
	case KindTelnet:
		t = NewTelnet(address, port, opts)
	default:
		return nil, errors.Errorf("unknown transport %s", kind)
	}
	if err := t.Connect(); err != nil {
		return nil, err
	}
	return t, nil
}
