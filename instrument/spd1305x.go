package instrument

import (
	"github.com/but80/scpilab/scpi"
	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
)

// SenseMode は、電源の電圧検出方式です。
type SenseMode string

const (
	Sense2W SenseMode = "2W"
	Sense4W SenseMode = "4W"
)

// SYST:STAT? のビット。
const (
	StatusOutput      = 0x10
	StatusFourWire    = 0x20
	StatusWaveDisplay = 0x100
)

// SPD1305X measurement commands.
var (
	SPD1305XMeasureVoltage = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: "MEAS:VOLT"}
	SPD1305XMeasureCurrent = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: "MEAS:CURR"}
	SPD1305XMeasurePower   = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: "MEAS:POWE"}
)

// SPD1305X source commands. 出力切替はパラメータ込みのニーモニックで、"CH1,ON" の間に空白を入れてはいけません。
var (
	SPD1305XVoltage        = scpi.Command{Category: scpi.CategorySource, Mnemonic: "CH1:VOLT"}
	SPD1305XCurrent        = scpi.Command{Category: scpi.CategorySource, Mnemonic: "CH1:CURR"}
	SPD1305XOutputOn       = scpi.Command{Category: scpi.CategorySource, Mnemonic: "OUTP CH1,ON"}
	SPD1305XOutputOff      = scpi.Command{Category: scpi.CategorySource, Mnemonic: "OUTP CH1,OFF"}
	SPD1305XWaveDisplayOn  = scpi.Command{Category: scpi.CategorySource, Mnemonic: "OUTP:WAVE CH1,ON"}
	SPD1305XWaveDisplayOff = scpi.Command{Category: scpi.CategorySource, Mnemonic: "OUTP:WAVE CH1,OFF"}
)

// SPD1305X system commands.
var (
	SPD1305XMode   = scpi.Command{Category: scpi.CategorySystem, Mnemonic: "MODE:SET"}
	SPD1305XStatus = scpi.Command{Category: scpi.CategorySystem, Mnemonic: "SYST:STAT"}
)

func init() {
	scpi.MustValidate(
		SPD1305XMeasureVoltage, SPD1305XMeasureCurrent, SPD1305XMeasurePower,
		SPD1305XVoltage, SPD1305XCurrent, SPD1305XOutputOn, SPD1305XOutputOff, SPD1305XWaveDisplayOn, SPD1305XWaveDisplayOff,
		SPD1305XMode, SPD1305XStatus,
	)
}

// SPD1305X は、Siglent SPD1305X 直流安定化電源です。
type SPD1305X struct {
	*scpi.Session
}

func NewSPD1305X(t transport.Transport) *SPD1305X {
	return &SPD1305X{scpi.NewSession(t)}
}

// SetVoltage は、出力電圧 [V] を設定します。
func (p *SPD1305X) SetVoltage(volts float64) error {
	return p.Set(SPD1305XVoltage, formatFloat(volts))
}

// Voltage は、設定電圧 [V] を返します。
func (p *SPD1305X) Voltage() (float64, error) {
	return p.queryQuantity(SPD1305XVoltage)
}

// SetCurrent は、電流制限値 [A] を設定します。
func (p *SPD1305X) SetCurrent(amps float64) error {
	return p.Set(SPD1305XCurrent, formatFloat(amps))
}

func (p *SPD1305X) Current() (float64, error) {
	return p.queryQuantity(SPD1305XCurrent)
}

func (p *SPD1305X) SetEnableOutput(enable bool) error {
	if enable {
		return p.Set(SPD1305XOutputOn, "")
	}
	return p.Set(SPD1305XOutputOff, "")
}

func (p *SPD1305X) SetEnableWaveDisplay(enable bool) error {
	if enable {
		return p.Set(SPD1305XWaveDisplayOn, "")
	}
	return p.Set(SPD1305XWaveDisplayOff, "")
}

// SystemStatus は、SYST:STAT? のステータスレジスタを返します。
func (p *SPD1305X) SystemStatus() (uint64, error) {
	r, err := p.Query(SPD1305XStatus, "")
	if err != nil {
		return 0, err
	}
	return scpi.ParseHex(r)
}

func (p *SPD1305X) statusBit(mask uint64) (bool, error) {
	st, err := p.SystemStatus()
	if err != nil {
		return false, err
	}
	return st&mask != 0, nil
}

func (p *SPD1305X) OutputEnabled() (bool, error) {
	return p.statusBit(StatusOutput)
}

func (p *SPD1305X) WaveDisplayEnabled() (bool, error) {
	return p.statusBit(StatusWaveDisplay)
}

// FourWireEnabled は、4線式検出が有効なら true を返します。
func (p *SPD1305X) FourWireEnabled() (bool, error) {
	return p.statusBit(StatusFourWire)
}

// SetMode は、電圧検出方式を設定します。
func (p *SPD1305X) SetMode(mode SenseMode) error {
	if mode != Sense2W && mode != Sense4W {
		return errors.Errorf("invalid sense mode %q (want 2W|4W)", mode)
	}
	return p.Set(SPD1305XMode, string(mode))
}

func (p *SPD1305X) MeasureVoltage() (float64, error) {
	return p.QueryFloat(SPD1305XMeasureVoltage, "")
}

func (p *SPD1305X) MeasureCurrent() (float64, error) {
	return p.QueryFloat(SPD1305XMeasureCurrent, "")
}

func (p *SPD1305X) MeasurePower() (float64, error) {
	return p.QueryFloat(SPD1305XMeasurePower, "")
}

// queryQuantity は、"CH1:VOLT 1.200" のようにヘッダが付く応答から数値を取り出します。
func (p *SPD1305X) queryQuantity(cmd scpi.Command) (float64, error) {
	r, err := p.Query(cmd, "")
	if err != nil {
		return 0, err
	}
	return scpi.ParseQuantity(r)
}
