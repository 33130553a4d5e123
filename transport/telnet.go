package transport

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/but80/scpilab/log"
	"github.com/pkg/errors"
	"github.com/ziutek/telnet"
)

// telnetBufferSize は、Telnetの1回の読み出しに用意するバッファの大きさです。
const telnetBufferSize = 4096

// Telnet は、Telnetセッション経由のトランスポートです。
type Telnet struct {
	addr string
	opts Options
	conn *telnet.Conn
}

// NewTelnet は、未接続の Telnet を作成します。
func NewTelnet(host string, port int, opts Options) *Telnet {
	if port <= 0 {
		port = 23
	}
	return &Telnet{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		opts: opts,
	}
}

func (t *Telnet) Kind() Kind {
	return KindTelnet
}

func (t *Telnet) Framing() Framing {
	return LineFraming
}

func (t *Telnet) Connect() error {
	if t.conn != nil {
		return nil
	}
	log.Infof("connecting to telnet://%s", t.addr)
	conn, err := telnet.DialTimeout("tcp", t.addr, t.opts.timeout())
	if err != nil {
		return errors.WithStack(&ConnectionError{Op: "dial", Addr: t.addr, Err: err})
	}
	t.conn = conn
	return nil
}

func (t *Telnet) Send(b []byte) error {
	if t.conn == nil {
		return errors.WithStack(ErrClosed)
	}
	if _, err := t.conn.Write(b); err != nil {
		return t.wrap("write", err)
	}
	return nil
}

// Receive は、1回だけ読み出します。Telnetセッション側でバッファリングされるため maxBytes は無視します。
func (t *Telnet) Receive(maxBytes int) ([]byte, error) {
	if t.conn == nil {
		return nil, errors.WithStack(ErrClosed)
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.opts.timeout())); err != nil {
		return nil, t.wrap("read", err)
	}
	buf := make([]byte, telnetBufferSize)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, t.wrap("read", err)
	}
	return buf[:n], nil
}

func (t *Telnet) Close() error {
	if t.conn == nil {
		return nil
	}
	log.Infof("closing telnet://%s", t.addr)
	err := t.conn.Close()
	t.conn = nil
	return errors.WithStack(err)
}

func (t *Telnet) wrap(op string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Wrapf(ErrTimeout, "%s %s", op, t.addr)
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.WithStack(&ConnectionError{Op: op, Addr: t.addr, Err: err})
}
