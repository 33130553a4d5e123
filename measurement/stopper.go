package measurement

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrInterrupted は、Stop によって計測手順が途中で打ち切られたことを表します。
var ErrInterrupted = errors.New("measurement: interrupted")

// Stopper は、別のゴルーチン (シグナルハンドラなど) から実行中の手順を止め、
// その終了を待つためのものです。計測器への問い合わせは常に手順を実行するゴルーチンだけが行います。
type Stopper struct {
	stop    atomic.Bool
	running sync.Mutex
}

// Stop は、次の手順の前に処理を止めるよう求め、実行中なら終了するまで待ちます。
// 手順を実行しているゴルーチン自身から呼んではいけません。
func (s *Stopper) Stop() {
	s.stop.Store(true)
	s.running.Lock()
	s.running.Unlock()
}

// Stopped は、Stop が呼ばれたかを返します。
func (s *Stopper) Stopped() bool {
	return s.stop.Load()
}

func (s *Stopper) begin() {
	s.running.Lock()
}

func (s *Stopper) end() {
	s.running.Unlock()
}
