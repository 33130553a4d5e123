package instrument

import (
	"strings"

	"github.com/but80/scpilab/scpi"
	"github.com/but80/scpilab/transport"
)

// TriggerMode は、HMC8012 のトリガモードです。
type TriggerMode string

const (
	TriggerSingle TriggerMode = "SING"
	TriggerAuto   TriggerMode = "AUTO"
	TriggerManual TriggerMode = "MAN"
)

// HMC8012 の直流電圧レンジ。
const (
	RangeAuto    = "AUTO"
	Range400mV   = "400mV"
	Range4V      = "4V"
	Range40V     = "40V"
	Range400V    = "400V"
	Range750V    = "750V"
	RangeMinimum = "MIN"
	RangeMaximum = "MAX"
	RangeDefault = "DEF"
)

// 測温抵抗体の種類。
const (
	ProbePT100  = "PT100"
	ProbePT500  = "PT500"
	ProbePT1000 = "PT1000"
)

var (
	HMC8012Fetch            = scpi.Command{Category: scpi.CategorySystem, Mnemonic: "FETC"}
	HMC8012Read             = scpi.Command{Category: scpi.CategorySystem, Mnemonic: "READ"}
	HMC8012TriggerMode      = scpi.Command{Category: scpi.CategoryTrigger, Mnemonic: "TRIG:MODE"}
	HMC8012MeasureVoltageDC = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: "MEAS:VOLT:DC"}
	HMC8012MeasureTemp      = scpi.Command{Category: scpi.CategoryMeasurement, Mnemonic: "MEAS:TEMP"}
)

func init() {
	scpi.MustValidate(HMC8012Fetch, HMC8012Read, HMC8012TriggerMode, HMC8012MeasureVoltageDC, HMC8012MeasureTemp)
}

// HMC8012 は、Rohde & Schwarz (旧Hameg) HMC8012 デジタルマルチメータです。
// 手動レンジで入力が範囲を超えると 9.90000000E+37 を返します。
type HMC8012 struct {
	*scpi.Session
}

func NewHMC8012(t transport.Transport) *HMC8012 {
	return &HMC8012{scpi.NewSession(t)}
}

func (m *HMC8012) Fetch() (float64, error) {
	return m.QueryFloat(HMC8012Fetch, "")
}

func (m *HMC8012) Read() (float64, error) {
	return m.QueryFloat(HMC8012Read, "")
}

func (m *HMC8012) TriggerMode() (TriggerMode, error) {
	r, err := m.Query(HMC8012TriggerMode, "")
	return TriggerMode(r), err
}

func (m *HMC8012) SetTriggerMode(mode TriggerMode) error {
	return m.Set(HMC8012TriggerMode, string(mode))
}

// MeasureVoltageDC は、指定レンジで直流電圧 [V] を測定します。
func (m *HMC8012) MeasureVoltageDC(voltageRange string) (float64, error) {
	return m.QueryFloat(HMC8012MeasureVoltageDC, voltageRange)
}

// MeasureTemperature は、測温抵抗体で温度を測定します。fourWire が true なら4線式で測定します。
func (m *HMC8012) MeasureTemperature(fourWire bool, probe string) (float64, error) {
	sensor := "RTD"
	if fourWire {
		sensor = "FRTD"
	}
	return m.QueryFloat(HMC8012MeasureTemp, strings.TrimSpace(sensor+" "+probe))
}
