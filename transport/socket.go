package transport

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/but80/scpilab/log"
	"github.com/pkg/errors"
)

// Socket は、TCPソケット経由のトランスポートです。
type Socket struct {
	addr string
	opts Options
	conn net.Conn
}

// NewSocket は、未接続の Socket を作成します。port が 0 以下なら DefaultPort を使います。
func NewSocket(host string, port int, opts Options) *Socket {
	if port <= 0 {
		port = DefaultPort
	}
	return &Socket{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		opts: opts,
	}
}

// NewSocketConn は、接続済みの conn を Socket として扱います。
func NewSocketConn(conn net.Conn, opts Options) *Socket {
	return &Socket{
		addr: conn.RemoteAddr().String(),
		opts: opts,
		conn: conn,
	}
}

func (s *Socket) ReadMode() ReadMode {
	return s.opts.ReadMode
}

func (s *Socket) Kind() Kind {
	return KindSocket
}

func (s *Socket) Framing() Framing {
	return LineFraming
}

// Connect は、接続を確立します。
func (s *Socket) Connect() error {
	if s.conn != nil {
		return nil
	}
	log.Infof("connecting to %s", s.addr)
	conn, err := net.DialTimeout("tcp", s.addr, s.opts.timeout())
	if err != nil {
		return errors.WithStack(&ConnectionError{Op: "dial", Addr: s.addr, Err: err})
	}
	s.conn = conn
	return nil
}

// Send は、b をそのまま送信します。行末はすでに付加されている必要があります。
func (s *Socket) Send(b []byte) error {
	if s.conn == nil {
		return errors.WithStack(ErrClosed)
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.timeout())); err != nil {
		return errors.WithStack(&ConnectionError{Op: "write", Addr: s.addr, Err: err})
	}
	if _, err := s.conn.Write(b); err != nil {
		return s.wrap("write", err)
	}
	return nil
}

// Receive は、'\n' で終わるチャンクを受信するまで maxBytes ずつ読み出します。
func (s *Socket) Receive(maxBytes int) ([]byte, error) {
	if s.conn == nil {
		return nil, errors.WithStack(ErrClosed)
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.timeout())); err != nil {
		return nil, errors.WithStack(&ConnectionError{Op: "read", Addr: s.addr, Err: err})
	}
	return readUntilTerminator(func(p []byte) (int, error) {
		n, err := s.conn.Read(p)
		if err != nil {
			return n, s.wrap("read", err)
		}
		return n, nil
	}, maxBytes, s.opts.ReadMode)
}

// Close は、接続を閉じます。2回目以降の呼び出しは何もしません。
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	log.Infof("closing %s", s.addr)
	err := s.conn.Close()
	s.conn = nil
	return errors.WithStack(err)
}

func (s *Socket) wrap(op string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Wrapf(ErrTimeout, "%s %s", op, s.addr)
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.WithStack(&ConnectionError{Op: op, Addr: s.addr, Err: err})
}
