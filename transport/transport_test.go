package transport

import (
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkReader(chunks ...string) (readFunc, *int) {
	calls := 0
	return func(p []byte) (int, error) {
		if len(chunks) <= calls {
			return 0, io.ErrUnexpectedEOF
		}
		n := copy(p, chunks[calls])
		calls++
		return n, nil
	}, &calls
}

func TestReadUntilTerminator(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		mode   ReadMode
		want   string
		calls  int
	}{
		{"single chunk", []string{"1.234\n"}, ReadAccumulate, "1.234\n", 1},
		{"split accumulate", []string{"12.5", "6\n"}, ReadAccumulate, "12.56\n", 2},
		{"split last chunk", []string{"12.5", "6\n"}, ReadLastChunk, "6\n", 2},
		{"empty first read", []string{"", "1\n"}, ReadAccumulate, "1\n", 2},
		{"empty first read last chunk", []string{"", "0\n"}, ReadLastChunk, "0\n", 2},
		{"newline inside chunk", []string{"a\nb", "c\n"}, ReadAccumulate, "a\nbc\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			read, calls := chunkReader(tt.chunks...)
			got, err := readUntilTerminator(read, 64, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.calls, *calls)
		})
	}
}

func TestReadUntilTerminatorError(t *testing.T) {
	read, _ := chunkReader("no terminator")
	_, err := readUntilTerminator(read, 64, ReadAccumulate)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReadUntilTerminatorChunkSize(t *testing.T) {
	var sizes []int
	read := func(p []byte) (int, error) {
		sizes = append(sizes, len(p))
		return copy(p, "1\n"), nil
	}
	_, err := readUntilTerminator(read, 0, ReadAccumulate)
	require.NoError(t, err)
	_, err = readUntilTerminator(read, 4096, ReadAccumulate)
	require.NoError(t, err)
	assert.Equal(t, []int{DefaultReadSize, 4096}, sizes)
}

func pipe(t *testing.T, opts Options) (*Socket, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return NewSocketConn(client, opts), server
}

func TestSocketSendReceive(t *testing.T) {
	s, server := pipe(t, Options{Timeout: time.Second})
	assert.Equal(t, KindSocket, s.Kind())
	assert.Equal(t, LineFraming, s.Framing())

	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		if string(buf[:n]) != "MEAS:VOLT?\r\n" {
			server.Close()
			return
		}
		server.Write([]byte("12.5"))
		server.Write([]byte("6\n"))
	}()

	require.NoError(t, s.Send([]byte("MEAS:VOLT?\r\n")))
	got, err := s.Receive(64)
	require.NoError(t, err)
	assert.Equal(t, "12.56\n", string(got))
}

func TestSocketReceiveLastChunk(t *testing.T) {
	s, server := pipe(t, Options{Timeout: time.Second, ReadMode: ReadLastChunk})
	go func() {
		server.Write([]byte("12.5"))
		server.Write([]byte("6\n"))
	}()
	got, err := s.Receive(64)
	require.NoError(t, err)
	assert.Equal(t, "6\n", string(got))
}

func TestSocketReceiveTimeout(t *testing.T) {
	s, _ := pipe(t, Options{Timeout: 20 * time.Millisecond})
	_, err := s.Receive(64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.False(t, IsConnectionError(err))
}

func TestSocketReceiveClosedByPeer(t *testing.T) {
	s, server := pipe(t, Options{Timeout: time.Second})
	server.Close()
	_, err := s.Receive(64)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err), "got %v", err)
}

func TestSocketClose(t *testing.T) {
	s, _ := pipe(t, Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, errors.Is(s.Send([]byte("*RST\r\n")), ErrClosed))
	_, err := s.Receive(64)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestSocketConnectRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	l.Close()

	s := NewSocket("127.0.0.1", addr.Port, Options{Timeout: time.Second})
	err = s.Connect()
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}

func TestSocketConnect(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		if string(buf[:n]) == "*IDN?\r\n" {
			conn.Write([]byte("RIGOL TECHNOLOGIES,DM858E,DM8E0000,00.01.00\n"))
		}
	}()

	port := l.Addr().(*net.TCPAddr).Port
	tr, err := Open(KindSocket, "127.0.0.1", port, Options{Timeout: time.Second})
	require.NoError(t, err)
	defer tr.Close()
	require.NoError(t, tr.Send([]byte("*IDN?\r\n")))
	got, err := tr.Receive(64)
	require.NoError(t, err)
	assert.Equal(t, "RIGOL TECHNOLOGIES,DM858E,DM8E0000,00.01.00\n", string(got))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"tcp":    KindSocket,
		"socket": KindSocket,
		"usb":    KindUSB,
		"telnet": KindTelnet,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("gpib")
	assert.Error(t, err)
}

func TestFraming(t *testing.T) {
	assert.Equal(t, RawFraming, NewUSB("/dev/usbtmc0", Options{}).Framing())
	assert.Equal(t, Framing{Terminator: "\n", Trim: true}, NewUSB("/dev/ttyACM0", Options{Terminator: "\n"}).Framing())
	assert.Equal(t, LineFraming, NewTelnet("192.168.1.10", 0, Options{}).Framing())
	assert.Equal(t, KindTelnet, NewTelnet("192.168.1.10", 0, Options{}).Kind())
}

func TestUSBConnectMissingDevice(t *testing.T) {
	u := NewUSB("/nonexistent/usbtmc9", Options{})
	err := u.Connect()
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.True(t, errors.Is(u.Send([]byte("*RST")), ErrClosed))
}

func TestBaudRate(t *testing.T) {
	assert.True(t, IsValidBaudRate(115200))
	assert.False(t, IsValidBaudRate(1234))
	assert.Equal(t, "(9600|19200|38400|57600|115200)", BaudRateList())
}

type deviceRead struct {
	data string
	err  error
}

type scriptedDevice struct {
	reads []deviceRead
	calls int
}

func (d *scriptedDevice) Read(p []byte) (int, error) {
	if len(d.reads) <= d.calls {
		return 0, nil
	}
	r := d.reads[d.calls]
	d.calls++
	return copy(p, r.data), r.err
}

func (d *scriptedDevice) Write(p []byte) (int, error) {
	return len(p), nil
}

func (d *scriptedDevice) Close() error {
	return nil
}

func TestUSBReceive(t *testing.T) {
	tests := []struct {
		name  string
		reads []deviceRead
		mode  ReadMode
		want  string
		calls int
	}{
		{"empty reads", []deviceRead{{}, {"", io.EOF}, {"1\n", nil}}, ReadAccumulate, "1\n", 3},
		{"accumulate", []deviceRead{{"12.5", nil}, {}, {"6\n", nil}}, ReadAccumulate, "12.56\n", 3},
		{"last chunk", []deviceRead{{"12.5", nil}, {"6\n", nil}}, ReadLastChunk, "6\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &scriptedDevice{reads: tt.reads}
			u := NewUSB("/dev/usbtmc0", Options{Timeout: time.Second, ReadMode: tt.mode})
			u.dev = dev
			got, err := u.Receive(64)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.calls, dev.calls)
		})
	}
}

func TestUSBReceiveTimeout(t *testing.T) {
	tests := []struct {
		name  string
		reads []deviceRead
	}{
		{"no data", nil},
		{"driver timeout", []deviceRead{{"", syscall.ETIMEDOUT}}},
		{"partial then nothing", []deviceRead{{"12.5", nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUSB("/dev/usbtmc0", Options{Timeout: 20 * time.Millisecond})
			u.dev = &scriptedDevice{reads: tt.reads}
			_, err := u.Receive(64)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
			assert.False(t, IsConnectionError(err))
		})
	}
}

func TestUSBReceiveDeviceError(t *testing.T) {
	u := NewUSB("/dev/usbtmc0", Options{Timeout: time.Second})
	u.dev = &scriptedDevice{reads: []deviceRead{{"", syscall.ENODEV}}}
	_, err := u.Receive(64)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err), "got %v", err)
}

func listenTelnet(t *testing.T, serve func(conn net.Conn)) *Telnet {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()
	port := l.Addr().(*net.TCPAddr).Port
	tn := NewTelnet("127.0.0.1", port, Options{Timeout: 200 * time.Millisecond})
	require.NoError(t, tn.Connect())
	t.Cleanup(func() { tn.Close() })
	return tn
}

func TestTelnetSendReceive(t *testing.T) {
	tn := listenTelnet(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		if string(buf[:n]) == "*IDN?\r\n" {
			conn.Write([]byte("RIGOL TECHNOLOGIES,DL3021A\n"))
		}
		conn.Read(buf)
	})
	require.NoError(t, tn.Send([]byte("*IDN?\r\n")))
	got, err := tn.Receive(4)
	require.NoError(t, err)
	assert.Equal(t, "RIGOL TECHNOLOGIES,DL3021A\n", string(got))
}

func TestTelnetReceiveTimeout(t *testing.T) {
	done := make(chan struct{})
	tn := listenTelnet(t, func(conn net.Conn) {
		<-done
	})
	defer close(done)
	_, err := tn.Receive(64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.False(t, IsConnectionError(err))
}

func TestTelnetReceiveClosedByPeer(t *testing.T) {
	tn := listenTelnet(t, func(conn net.Conn) {})
	_, err := tn.Receive(64)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err), "got %v", err)
}

func TestTelnetClose(t *testing.T) {
	tn := NewTelnet("127.0.0.1", 1, Options{})
	require.NoError(t, tn.Close())
	assert.True(t, errors.Is(tn.Send([]byte("*RST\r\n")), ErrClosed))
	_, err := tn.Receive(64)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestReadModeOf(t *testing.T) {
	assert.Equal(t, ReadLastChunk, ReadModeOf(NewSocket("127.0.0.1", 0, Options{ReadMode: ReadLastChunk})))
	assert.Equal(t, ReadLastChunk, ReadModeOf(NewUSB("/dev/usbtmc0", Options{ReadMode: ReadLastChunk})))
	assert.Equal(t, ReadAccumulate, ReadModeOf(NewSocket("127.0.0.1", 0, Options{})))
	assert.Equal(t, ReadAccumulate, ReadModeOf(NewTelnet("127.0.0.1", 0, Options{ReadMode: ReadLastChunk})))
}
