package bench

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration は、"5s" や "100ms" のような文字列で記述する時間です。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// InstrumentConfig は、1台の計測器の接続先です。
type InstrumentConfig struct {
	Name       string   `yaml:"name"`
	Model      string   `yaml:"model"`
	Transport  string   `yaml:"transport"`
	Host       string   `yaml:"host,omitempty"`
	Port       int      `yaml:"port,omitempty"`
	Device     string   `yaml:"device,omitempty"`
	BaudRate   int      `yaml:"baud_rate,omitempty"`
	Terminator string   `yaml:"terminator,omitempty"`
	ReadMode   string   `yaml:"read_mode,omitempty"`
	Timeout    Duration `yaml:"timeout,omitempty"`
}

// Config は、計測台に並ぶ計測器の一覧です。
type Config struct {
	Timeout     Duration           `yaml:"timeout"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// ConfigError は、設定ファイルの読み込みや検査の失敗です。
type ConfigError struct {
	File    string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	s := e.Message
	if e.File != "" {
		s = e.File + ": " + s
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// DefaultConfig は、実験室の計測台の既定の構成を返します。
func DefaultConfig() *Config {
	return &Config{
		Timeout: Duration(transport.DefaultTimeout),
		Instruments: []InstrumentConfig{
			{Name: "load", Model: "dl3021a", Transport: "socket", Host: "192.168.1.247", Port: transport.DefaultPort},
			{Name: "dmm", Model: "hmc8012", Transport: "socket", Host: "192.168.1.146", Port: transport.DefaultPort},
			{Name: "dmm2", Model: "dm858e", Transport: "socket", Host: "192.168.1.237", Port: transport.DefaultPort},
			{Name: "scope", Model: "sds1104x", Transport: "socket", Host: "192.168.1.107", Port: transport.DefaultPort},
			{Name: "psu", Model: "spd1305x", Transport: "socket", Host: "192.168.1.249", Port: transport.DefaultPort},
		},
	}
}

// ParseConfig は、YAMLから設定を読み込み、既定値を補って検査します。
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig は、ファイルから設定を読み込みます。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Marshal は、設定をYAMLに書き出します。
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate は、既定値を補いつつ設定の整合性を検査します。
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = Duration(transport.DefaultTimeout)
	}
	if len(c.Instruments) == 0 {
		return &ConfigError{Message: "no instruments"}
	}
	seen := map[string]bool{}
	for i := range c.Instruments {
		ic := &c.Instruments[i]
		if ic.Name == "" {
			return &ConfigError{Message: fmt.Sprintf("instruments[%d]: name is required", i)}
		}
		if seen[ic.Name] {
			return &ConfigError{Message: fmt.Sprintf("instruments[%d]: duplicate name %q", i, ic.Name)}
		}
		seen[ic.Name] = true
		if err := ic.validate(); err != nil {
			return &ConfigError{Message: fmt.Sprintf("instrument %q", ic.Name), Cause: err}
		}
	}
	return nil
}

func (ic *InstrumentConfig) validate() error {
	if !isKnownModel(ic.Model) {
		return errors.Errorf("unknown model %q (want one of %s)", ic.Model, strings.Join(instrument.Models(), "|"))
	}
	if ic.Transport == "" {
		ic.Transport = "socket"
	}
	kind, err := transport.ParseKind(ic.Transport)
	if err != nil {
		return err
	}
	switch kind {
	case transport.KindSocket, transport.KindTelnet:
		if ic.Host == "" {
			return errors.Errorf("host is required for %s transport", kind)
		}
		if ic.Port < 0 || 65535 < ic.Port {
			return errors.Errorf("invalid port %d", ic.Port)
		}
	case transport.KindUSB:
		if ic.Device == "" {
			return errors.New("device is required for usb transport")
		}
		if ic.BaudRate != 0 && !transport.IsValidBaudRate(ic.BaudRate) {
			return errors.Errorf("invalid baud rate %d (want one of %s)", ic.BaudRate, transport.BaudRateList())
		}
	}
	if _, err := parseReadMode(ic.ReadMode); err != nil {
		return err
	}
	return nil
}

func isKnownModel(model string) bool {
	for _, m := range instrument.Models() {
		if strings.EqualFold(m, model) {
			return true
		}
	}
	return false
}

func parseReadMode(s string) (transport.ReadMode, error) {
	switch s {
	case "", "accumulate":
		return transport.ReadAccumulate, nil
	case "last_chunk":
		return transport.ReadLastChunk, nil
	}
	return 0, errors.Errorf("unknown read mode %q (want accumulate|last_chunk)", s)
}

// address は、トランスポートに渡す接続先を返します。
func (ic *InstrumentConfig) address(kind transport.Kind) string {
	if kind == transport.KindUSB {
		return ic.Device
	}
	return ic.Host
}

func (ic *InstrumentConfig) options(defaultTimeout Duration) transport.Options {
	timeout := ic.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	mode, _ := parseReadMode(ic.ReadMode)
	return transport.Options{
		Timeout:    time.Duration(timeout),
		ReadMode:   mode,
		BaudRate:   ic.BaudRate,
		Terminator: ic.Terminator,
	}
}
