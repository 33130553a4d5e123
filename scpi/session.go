package scpi

import (
	"strconv"
	"strings"
	"time"

	"github.com/but80/scpilab/log"
	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
)

const (
	// QuerySuffix は、問い合わせコマンドに付加する接尾辞です。
	QuerySuffix = "?"
	// DefaultPollInterval は、*OPC? のポーリング間隔の既定値です。
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultPollTimeout は、*OPC? のポーリングを打ち切るまでの時間の既定値です。
	DefaultPollTimeout = 30 * time.Second
)

// Encode は、コマンドを送信フレームに組み立てます。
// パラメータは空でなければ空白1つで区切り、末尾にフレーミングの行末を付加します。
func Encode(f transport.Framing, cmd Command, params string, query bool) []byte {
	s := cmd.Mnemonic
	if query {
		s += QuerySuffix
	}
	if f.Trim {
		params = strings.TrimSpace(params)
	}
	if params != "" {
		s += " " + params
	}
	return []byte(s + f.Terminator)
}

// Session は、1つのトランスポートを所有してSCPIの要求と応答をやり取りします。
// トランスポートを閉じるのは Session ではなく呼び出し側の責務です。
// 1つの Session を複数のゴルーチンから同時に使ってはいけません。
type Session struct {
	t transport.Transport

	// ReadSize は、1回の受信で要求するバイト数です。
	ReadSize int
	// PollInterval は、WaitUntilOperationIsCompleted のポーリング間隔です。
	PollInterval time.Duration
	// PollTimeout は、WaitUntilOperationIsCompleted が諦めるまでの時間です。
	PollTimeout time.Duration
}

// NewSession は、接続済みのトランスポートから Session を作成します。
func NewSession(t transport.Transport) *Session {
	return &Session{
		t:            t,
		ReadSize:     transport.DefaultReadSize,
		PollInterval: DefaultPollInterval,
		PollTimeout:  DefaultPollTimeout,
	}
}

// Transport は、所有しているトランスポートを返します。
func (s *Session) Transport() transport.Transport {
	return s.t
}

// Encode は、このセッションのフレーミングでコマンドを組み立てます。
func (s *Session) Encode(cmd Command, params string, query bool) []byte {
	return Encode(s.t.Framing(), cmd, params, query)
}

// Write は、コマンドを送信します。応答は読みません。
func (s *Session) Write(cmd Command, params string, query bool) error {
	frame := s.Encode(cmd, params, query)
	log.Debugf("OUT: %q", frame)
	return errors.WithStack(s.t.Send(frame))
}

// ReadRaw は、maxBytes ずつ応答を受信し、そのまま返します。
// 波形のような大きなデータを Write の後に読み出すときに使います。
func (s *Session) ReadRaw(maxBytes int) ([]byte, error) {
	b, err := s.t.Receive(maxBytes)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log.Debugf("IN: %d bytes", len(b))
	return b, nil
}

// Read は、応答を1つ受信して文字列として返します。
func (s *Session) Read() (string, error) {
	b, err := s.t.Receive(s.ReadSize)
	if err != nil {
		return "", errors.WithStack(err)
	}
	log.Debugf("IN: %q", b)
	return DecodeASCII(b)
}

// Transmit は、コマンドを送信し、続けて応答を受信します。
// すべての問い合わせはこの関数を通り、送信と受信が必ず対になります。
func (s *Session) Transmit(cmd Command, params string, query bool) (string, error) {
	if err := s.Write(cmd, params, query); err != nil {
		return "", err
	}
	return s.Read()
}

// Set は、設定コマンドを送信します。
func (s *Session) Set(cmd Command, params string) error {
	return s.Write(cmd, params, false)
}

// Query は、問い合わせコマンドを送信して応答を返します。
func (s *Session) Query(cmd Command, params string) (string, error) {
	return s.Transmit(cmd, params, true)
}

// QueryFloat は、問い合わせの応答を数値として返します。
func (s *Session) QueryFloat(cmd Command, params string) (float64, error) {
	r, err := s.Query(cmd, params)
	if err != nil {
		return 0, err
	}
	return ParseFloat(r)
}

// QueryEnabled は、問い合わせの応答を有効/無効として返します。
func (s *Session) QueryEnabled(cmd Command, params string) (bool, error) {
	r, err := s.Query(cmd, params)
	if err != nil {
		return false, err
	}
	return ParseEnabled(r), nil
}

// IDString は、*IDN? の応答を返します。
func (s *Session) IDString() (string, error) {
	return s.Query(Identify, "")
}

// Reset は、*RST を送信します。
func (s *Session) Reset() error {
	return s.Set(Reset, "")
}

// ClearStatus は、*CLS を送信します。
func (s *Session) ClearStatus() error {
	return s.Set(ClearStatus, "")
}

// IsOperationComplete は、*OPC? の応答に "1" が含まれるかを返します。
func (s *Session) IsOperationComplete() (bool, error) {
	r, err := s.Query(OperationComplete, "")
	if err != nil {
		return false, err
	}
	return strings.Contains(r, "1"), nil
}

// WaitUntilOperationIsCompleted は、完了を観測するまで PollInterval ごとに *OPC? を問い合わせます。
// PollTimeout を過ぎても完了しなければ ErrOperationTimeout を返します。
func (s *Session) WaitUntilOperationIsCompleted() error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := s.PollTimeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	deadline := time.Now().Add(timeout)
	for attempts := 1; ; attempts++ {
		done, err := s.IsOperationComplete()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Add(interval).Before(deadline) {
			return errors.Wrapf(ErrOperationTimeout, "%d polls in %s", attempts, timeout)
		}
		time.Sleep(interval)
	}
}

// NextError は、SYST:ERR? でエラーキューから1件取り出します。キューが空なら nil を返します。
func (s *Session) NextError() error {
	r, err := s.Query(SystemError, "")
	if err != nil {
		return err
	}
	parts := strings.SplitN(r, ",", 2)
	code, cerr := strconv.Atoi(strings.TrimSpace(parts[0]))
	if cerr != nil {
		return errors.WithStack(&DecodeError{Response: r, Want: "error queue entry", Err: cerr})
	}
	if code == 0 {
		return nil
	}
	msg := ""
	if len(parts) == 2 {
		msg = strings.Trim(strings.TrimSpace(parts[1]), `"`)
	}
	return &InstrumentError{Code: code, Message: msg}
}

// maxErrorQueue は、Errors が一度に取り出すエラーの上限です。
const maxErrorQueue = 32

// Errors は、エラーキューが空になるまでエラーを取り出します。
// maxErrorQueue 件取り出しても空にならなければ、取り出した分とともに ErrErrorQueueNotDrained を返します。
func (s *Session) Errors() ([]error, error) {
	var errs []error
	for i := 0; i < maxErrorQueue; i++ {
		err := s.NextError()
		if err == nil {
			return errs, nil
		}
		if _, ok := err.(*InstrumentError); !ok {
			return errs, err
		}
		errs = append(errs, err)
	}
	return errs, errors.Wrapf(ErrErrorQueueNotDrained, "after %d entries", maxErrorQueue)
}
