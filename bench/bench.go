// Package bench は、設定ファイルに従って計測器に接続し、
// 計測の間それらを保持して最後にまとめて解放します。
package bench

import (
	"reflect"
	"sync"

	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/log"
	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
	"github.com/xlab/closer"
	"go.uber.org/multierr"
)

// Opener は、トランスポートを生成して接続する関数です。
type Opener func(kind transport.Kind, address string, port int, opts transport.Options) (transport.Transport, error)

// Entry は、接続済みの計測器1台です。
type Entry struct {
	Name       string
	Model      string
	Instrument instrument.Instrument
}

// Bench は、接続済みの計測器の集まりです。
// すべてのトランスポートを所有し、Close で無条件に解放します。
type Bench struct {
	entries    []*Entry
	byName     map[string]*Entry
	interrupts []func()

	mu     sync.Mutex
	closed bool
}

// Open は、設定にあるすべての計測器に接続します。
func Open(cfg *Config) (*Bench, error) {
	return OpenWith(cfg, transport.Open)
}

// OpenWith は、open を使ってすべての計測器に接続します。
// 途中で失敗した場合は、それまでに開いたトランスポートを閉じてからエラーを返します。
func OpenWith(cfg *Config, open Opener) (*Bench, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bench{byName: map[string]*Entry{}}
	for i := range cfg.Instruments {
		ic := &cfg.Instruments[i]
		kind, _ := transport.ParseKind(ic.Transport)
		addr := ic.address(kind)
		log.Debugf("connecting %s (%s) via %s %s", ic.Name, ic.Model, kind, addr)
		t, err := open(kind, addr, ic.Port, ic.options(cfg.Timeout))
		if err != nil {
			err = errors.Wrapf(err, "failed to connect %s", ic.Name)
			return nil, multierr.Append(err, b.Close())
		}
		inst, err := instrument.New(ic.Model, t)
		if err != nil {
			err = multierr.Append(err, t.Close())
			return nil, multierr.Append(err, b.Close())
		}
		e := &Entry{Name: ic.Name, Model: ic.Model, Instrument: inst}
		b.entries = append(b.entries, e)
		b.byName[ic.Name] = e
	}
	return b, nil
}

// OnInterrupt は、シグナルで終了するときにトランスポートを閉じる前に呼ぶ関数を登録します。
// f は、実行中の手順を止めてその終了を待つものでなければなりません。
func (b *Bench) OnInterrupt(f func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interrupts = append(b.interrupts, f)
}

// Interrupt は、OnInterrupt で登録した関数を登録と逆の順に呼び、その後 Close します。
func (b *Bench) Interrupt() error {
	b.mu.Lock()
	interrupts := append([]func(){}, b.interrupts...)
	b.mu.Unlock()
	for i := len(interrupts) - 1; 0 <= i; i-- {
		interrupts[i]()
	}
	return b.Close()
}

// BindCloser は、シグナルで終了するときにも Interrupt が呼ばれるようにします。
func (b *Bench) BindCloser() {
	closer.Bind(func() {
		log.Warnf("interrupted")
		if err := b.Interrupt(); err != nil {
			log.Errorf("%s", err)
		}
	})
}

// Close は、すべてのトランスポートを閉じます。1つが失敗しても残りを閉じ続け、
// 失敗をまとめて返します。2回目以降の呼び出しは何もしません。
func (b *Bench) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	var err error
	for _, e := range b.entries {
		log.Debugf("closing %s", e.Name)
		if cerr := e.Instrument.Transport().Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrapf(cerr, "failed to close %s", e.Name))
		}
	}
	return err
}

// Entries は、設定ファイルの順に計測器を返します。
func (b *Bench) Entries() []*Entry {
	return b.entries
}

// Instrument は、名前で計測器を探します。
func (b *Bench) Instrument(name string) (instrument.Instrument, error) {
	e, ok := b.byName[name]
	if !ok {
		return nil, errors.Errorf("instrument %q is not on the bench", name)
	}
	return e.Instrument, nil
}

// Lookup は、名前で計測器を探し、期待する型であることを確かめて返します。
func Lookup[T instrument.Instrument](b *Bench, name string) (T, error) {
	var zero T
	inst, err := b.Instrument(name)
	if err != nil {
		return zero, err
	}
	v, ok := inst.(T)
	if !ok {
		return zero, errors.Errorf("instrument %q is %s, not %s", name, b.byName[name].Model, reflect.TypeOf((*T)(nil)).Elem())
	}
	return v, nil
}

// Identity は、計測器の *IDN? の応答です。
type Identity struct {
	Name  string
	Model string
	ID    string
}

// Identify は、すべての計測器に *IDN? を問い合わせます。
func (b *Bench) Identify() ([]Identity, error) {
	ids := make([]Identity, 0, len(b.entries))
	for _, e := range b.entries {
		id, err := e.Instrument.IDString()
		if err != nil {
			return ids, errors.Wrapf(err, "failed to identify %s", e.Name)
		}
		ids = append(ids, Identity{Name: e.Name, Model: e.Model, ID: id})
	}
	return ids, nil
}
