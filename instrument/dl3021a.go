package instrument

import (
	"github.com/but80/scpilab/scpi"
	"github.com/but80/scpilab/transport"
)

// LoadFunction は、電子負荷の動作モードです。
type LoadFunction string

const (
	LoadConstantCurrent    LoadFunction = "CURR"
	LoadConstantVoltage    LoadFunction = "VOLT"
	LoadConstantResistance LoadFunction = "RES"
	LoadConstantPower      LoadFunction = "POW"
)

// DL3021A source commands.
var (
	DL3021AInputState = scpi.Command{Category: scpi.CategorySource, Mnemonic: ":SOUR:INP:STAT"}
	DL3021AFunction   = scpi.Command{Category: scpi.CategorySource, Mnemonic: ":SOUR:FUNC"}
	DL3021ACurrent    = scpi.Command{Category: scpi.CategorySource, Mnemonic: ":SOUR:CURR:LEV:IMM"}
)

// DL3021A measurement commands.
var (
	DL3021AMeasureVoltage    = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: ":MEAS:VOLT"}
	DL3021AMeasureCurrent    = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: ":MEAS:CURR"}
	DL3021AMeasurePower      = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: ":MEAS:POW"}
	DL3021AMeasureResistance = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: ":MEAS:RES"}
)

func init() {
	scpi.MustValidate(
		DL3021AInputState, DL3021AFunction, DL3021ACurrent,
		DL3021AMeasureVoltage, DL3021AMeasureCurrent, DL3021AMeasurePower, DL3021AMeasureResistance,
	)
}

// DL3021A は、Rigol DL3021A 直流電子負荷です。
type DL3021A struct {
	*scpi.Session
}

func NewDL3021A(t transport.Transport) *DL3021A {
	return &DL3021A{scpi.NewSession(t)}
}

// SetEnableInput は、負荷入力をオン・オフします。
func (l *DL3021A) SetEnableInput(enable bool) error {
	return l.Set(DL3021AInputState, onOff(enable))
}

func (l *DL3021A) InputEnabled() (bool, error) {
	return l.QueryEnabled(DL3021AInputState, "")
}

func (l *DL3021A) SetFunction(f LoadFunction) error {
	return l.Set(DL3021AFunction, string(f))
}

func (l *DL3021A) Function() (LoadFunction, error) {
	r, err := l.Query(DL3021AFunction, "")
	return LoadFunction(r), err
}

// SetCurrent は、定電流モードの電流値 [A] を設定します。
func (l *DL3021A) SetCurrent(amps float64) error {
	return l.Set(DL3021ACurrent, formatFloat(amps))
}

func (l *DL3021A) Current() (float64, error) {
	return l.QueryFloat(DL3021ACurrent, "")
}

func (l *DL3021A) MeasureVoltage() (float64, error) {
	return l.QueryFloat(DL3021AMeasureVoltage, "")
}

func (l *DL3021A) MeasureCurrent() (float64, error) {
	return l.QueryFloat(DL3021AMeasureCurrent, "")
}

func (l *DL3021A) MeasurePower() (float64, error) {
	return l.QueryFloat(DL3021AMeasurePower, "")
}

func (l *DL3021A) MeasureResistance() (float64, error) {
	return l.QueryFloat(DL3021AMeasureResistance, "")
}
