package bench

import (
	"testing"
	"time"

	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/transport"
	"github.com/but80/scpilab/transport/transporttest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const benchYAML = `
timeout: 2s
instruments:
  - name: psu
    model: spd1305x
    host: 192.168.1.249
  - name: dmm
    model: HMC8012
    transport: tcpip
    host: 192.168.1.146
    port: 5025
    read_mode: last_chunk
  - name: load
    model: dl3021a
    transport: usb
    device: /dev/usbtmc0
    terminator: "\n"
    timeout: 500ms
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(benchYAML))
	require.NoError(t, err)
	assert.Equal(t, Duration(2*time.Second), cfg.Timeout)
	require.Len(t, cfg.Instruments, 3)
	assert.Equal(t, "socket", cfg.Instruments[0].Transport)
	assert.Equal(t, "\n", cfg.Instruments[2].Terminator)
	assert.Equal(t, Duration(500*time.Millisecond), cfg.Instruments[2].Timeout)

	opts := cfg.Instruments[1].options(cfg.Timeout)
	assert.Equal(t, 2*time.Second, opts.Timeout)
	assert.Equal(t, transport.ReadLastChunk, opts.ReadMode)
	opts = cfg.Instruments[2].options(cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, opts.Timeout)
	assert.Equal(t, "\n", opts.Terminator)
}

func TestParseConfigDefaultTimeout(t *testing.T) {
	cfg, err := ParseConfig([]byte("instruments:\n  - {name: x, model: generic, host: localhost}\n"))
	require.NoError(t, err)
	assert.Equal(t, Duration(transport.DefaultTimeout), cfg.Timeout)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"broken yaml", "instruments: ["},
		{"bad duration", "timeout: soon\ninstruments:\n  - {name: x, model: generic, host: h}\n"},
		{"no instruments", "timeout: 1s\n"},
		{"missing name", "instruments:\n  - {model: generic, host: h}\n"},
		{"duplicate name", "instruments:\n  - {name: x, model: generic, host: h}\n  - {name: x, model: generic, host: h}\n"},
		{"unknown model", "instruments:\n  - {name: x, model: hp3478a, host: h}\n"},
		{"unknown transport", "instruments:\n  - {name: x, model: generic, transport: gpib, host: h}\n"},
		{"missing host", "instruments:\n  - {name: x, model: generic}\n"},
		{"missing device", "instruments:\n  - {name: x, model: generic, transport: usb}\n"},
		{"bad baud rate", "instruments:\n  - {name: x, model: generic, transport: usb, device: /dev/ttyUSB0, baud_rate: 1234}\n"},
		{"bad port", "instruments:\n  - {name: x, model: generic, host: h, port: 70000}\n"},
		{"bad read mode", "instruments:\n  - {name: x, model: generic, host: h, read_mode: eager}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			var ce *ConfigError
			assert.True(t, errors.As(err, &ce), "%v", err)
		})
	}
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	b, err := DefaultConfig().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(b), "timeout: 5s")
	cfg, err := ParseConfig(b)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

type fetcher interface {
	instrument.Instrument
	Fetch() (float64, error)
}

type opened struct {
	kind    transport.Kind
	address string
	port    int
	opts    transport.Options
}

func mockOpener(mocks map[string]*transporttest.Mock, calls *[]opened) Opener {
	return func(kind transport.Kind, address string, port int, opts transport.Options) (transport.Transport, error) {
		*calls = append(*calls, opened{kind, address, port, opts})
		m, ok := mocks[address]
		if !ok {
			return nil, &transport.ConnectionError{Op: "dial", Addr: address, Err: errors.New("connection refused")}
		}
		return m, nil
	}
}

func TestOpenWith(t *testing.T) {
	cfg, err := ParseConfig([]byte(benchYAML))
	require.NoError(t, err)
	mocks := map[string]*transporttest.Mock{
		"192.168.1.249": transporttest.New("Siglent,SPD1305X\n"),
		"192.168.1.146": transporttest.New("Rohde&Schwarz,HMC8012\n"),
		"/dev/usbtmc0":  transporttest.NewRaw("RIGOL,DL3021A\n"),
	}
	var calls []opened
	b, err := OpenWith(cfg, mockOpener(mocks, &calls))
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, transport.KindSocket, calls[0].kind)
	assert.Equal(t, 0, calls[0].port)
	assert.Equal(t, transport.KindUSB, calls[2].kind)

	psu, err := Lookup[*instrument.SPD1305X](b, "psu")
	require.NoError(t, err)
	assert.NotNil(t, psu)
	_, err = Lookup[*instrument.DL3021A](b, "psu")
	assert.EqualError(t, err, `instrument "psu" is spd1305x, not *instrument.DL3021A`)
	_, err = Lookup[fetcher](b, "psu")
	assert.EqualError(t, err, `instrument "psu" is spd1305x, not bench.fetcher`)
	dmm, err := Lookup[fetcher](b, "dmm")
	require.NoError(t, err)
	assert.NotNil(t, dmm)
	_, err = b.Instrument("scope")
	assert.Error(t, err)

	ids, err := b.Identify()
	require.NoError(t, err)
	assert.Equal(t, []Identity{
		{"psu", "spd1305x", "Siglent,SPD1305X"},
		{"dmm", "HMC8012", "Rohde&Schwarz,HMC8012"},
		{"load", "dl3021a", "RIGOL,DL3021A"},
	}, ids)

	require.NoError(t, b.Close())
	for _, m := range mocks {
		assert.True(t, m.Closed)
	}
	require.NoError(t, b.Close())
}

func TestOpenWithFailureClosesOpened(t *testing.T) {
	cfg, err := ParseConfig([]byte(benchYAML))
	require.NoError(t, err)
	psu := transporttest.New()
	var calls []opened
	_, err = OpenWith(cfg, mockOpener(map[string]*transporttest.Mock{"192.168.1.249": psu}, &calls))
	require.Error(t, err)
	assert.True(t, transport.IsConnectionError(err))
	assert.True(t, psu.Closed)
	assert.Len(t, calls, 2)
}

type failingClose struct {
	*transporttest.Mock
	err error
}

func (f *failingClose) Close() error {
	f.Mock.Close()
	return f.err
}

func TestCloseCollectsErrors(t *testing.T) {
	cfg, err := ParseConfig([]byte(benchYAML))
	require.NoError(t, err)
	first := &failingClose{transporttest.New(), errors.New("reset by peer")}
	second := transporttest.New()
	third := &failingClose{transporttest.NewRaw(), errors.New("device gone")}
	byAddr := map[string]transport.Transport{
		"192.168.1.249": first,
		"192.168.1.146": second,
		"/dev/usbtmc0":  third,
	}
	b, err := OpenWith(cfg, func(kind transport.Kind, address string, port int, opts transport.Options) (transport.Transport, error) {
		return byAddr[address], nil
	})
	require.NoError(t, err)
	err = b.Close()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, first.Closed)
	assert.True(t, second.Closed)
	assert.True(t, third.Closed)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := LoadConfig("../bench.example.yaml")
	require.NoError(t, err)
	assert.Len(t, cfg.Instruments, 5)
	assert.Equal(t, Duration(30*time.Second), cfg.Instruments[3].Timeout)

	_, err = LoadConfig("../missing.yaml")
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "../missing.yaml", ce.File)
}

func TestInterruptStopsBeforeClosing(t *testing.T) {
	cfg, err := ParseConfig([]byte(benchYAML))
	require.NoError(t, err)
	psu := transporttest.New()
	b, err := OpenWith(cfg, func(kind transport.Kind, address string, port int, opts transport.Options) (transport.Transport, error) {
		if address == "192.168.1.249" {
			return psu, nil
		}
		return transporttest.New(), nil
	})
	require.NoError(t, err)
	var order []string
	b.OnInterrupt(func() {
		assert.False(t, psu.Closed)
		order = append(order, "first")
	})
	b.OnInterrupt(func() {
		assert.False(t, psu.Closed)
		order = append(order, "second")
	})
	require.NoError(t, b.Interrupt())
	assert.Equal(t, []string{"second", "first"}, order)
	assert.True(t, psu.Closed)
	require.NoError(t, b.Close())
}
