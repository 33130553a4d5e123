package scpi

import (
	"fmt"
	"strings"
)

type Category int

const (
	CategoryCommon Category = iota
	CategoryMeasurement
	CategorySource
	CategoryAcquisition
	CategoryChannel
	CategoryTimeBase
	CategoryTrigger
	CategorySystem
	CategoryRaw
)

var categoryNames = map[Category]string{
	CategoryCommon:      "common",
	CategoryMeasurement: "measurement",
	CategorySource:      "source",
	CategoryAcquisition: "acquisition",
	CategoryChannel:     "channel",
	CategoryTimeBase:    "timebase",
	CategoryTrigger:     "trigger",
	CategorySystem:      "system",
	CategoryRaw:         "raw",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Command は、SCPIコマンドのニーモニックです。値として扱い、定義後に変更しません。
type Command struct {
	Category Category
	Mnemonic string
}

func (c Command) String() string {
	return c.Mnemonic
}

// Raw は、オペレータが入力したニーモニックをそのまま Command にします。
func Raw(mnemonic string) Command {
	return Command{Category: CategoryRaw, Mnemonic: strings.TrimSuffix(strings.TrimSpace(mnemonic), QuerySuffix)}
}

// Common commands (IEEE 488.2).
var (
	Identify          = Command{CategoryCommon, "*IDN"}
	Reset             = Command{CategoryCommon, "*RST"}
	OperationComplete = Command{CategoryCommon, "*OPC"}
	ClearStatus       = Command{CategoryCommon, "*CLS"}
	SystemError       = Command{CategorySystem, "SYST:ERR"}
)

func init() {
	MustValidate(Identify, Reset, OperationComplete, ClearStatus, SystemError)
}

// Validate は、ニーモニックが送信可能な形式かを検査します。
func (c Command) Validate() error {
	m := c.Mnemonic
	if m == "" {
		return fmt.Errorf("scpi: empty mnemonic in %s command", c.Category)
	}
	if strings.TrimSpace(m) != m {
		return fmt.Errorf("scpi: mnemonic %q has surrounding whitespace", m)
	}
	if strings.HasSuffix(m, QuerySuffix) {
		return fmt.Errorf("scpi: mnemonic %q must not carry the query suffix", m)
	}
	for i := 0; i < len(m); i++ {
		if m[i] < 0x20 || 0x7e < m[i] {
			return fmt.Errorf("scpi: mnemonic %q has non printable byte 0x%02x", m, m[i])
		}
	}
	return nil
}

// MustValidate は、コマンドテーブルを検査し、不正なものがあれば panic します。
// 各パッケージの初期化時に呼び出します。
func MustValidate(cmds ...Command) {
	for _, c := range cmds {
		if err := c.Validate(); err != nil {
			panic(err)
		}
	}
}
