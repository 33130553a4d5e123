// Package measurement は、計測台の計測器を組み合わせた計測手順を実行します。
package measurement

import (
	"math"
	"strings"
	"time"

	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PowerSupply は、負荷変動計測で被測定回路に電力を供給する電源です。
type PowerSupply interface {
	instrument.Instrument
	SetVoltage(volts float64) error
	SetCurrent(amps float64) error
	SetMode(mode instrument.SenseMode) error
	SetEnableOutput(enable bool) error
	MeasureVoltage() (float64, error)
	MeasureCurrent() (float64, error)
	MeasurePower() (float64, error)
}

// Load は、被測定回路の出力に接続する電子負荷です。
type Load interface {
	instrument.Instrument
	SetEnableInput(enable bool) error
	SetCurrent(amps float64) error
	MeasureVoltage() (float64, error)
	MeasureCurrent() (float64, error)
	MeasurePower() (float64, error)
}

// Meter は、直前の測定値を取り出せるマルチメータです。
type Meter interface {
	instrument.Instrument
	Fetch() (float64, error)
}

// LoadRegulationOptions は、負荷変動計測の条件です。
type LoadRegulationOptions struct {
	DUT          string
	Version      string
	InputVoltage float64
	// PSUVoltage と PSUCurrent は、電源の出力電圧と電流制限値です。
	PSUVoltage   float64
	PSUCurrent   float64
	Sense        instrument.SenseMode
	SettlingTime time.Duration
	StartCurrent float64
	StopCurrent  float64
	StepCurrent  float64
	ResultsPath  string
	FilePrefix   string
}

// DefaultLoadRegulationOptions は、LM2596 降圧モジュールを 0A から 2A まで 10mA 刻みで計測する条件です。
var DefaultLoadRegulationOptions = LoadRegulationOptions{
	DUT:          "LM2596",
	InputVoltage: 23,
	PSUVoltage:   12,
	PSUCurrent:   5,
	Sense:        instrument.Sense4W,
	SettlingTime: 100 * time.Millisecond,
	StartCurrent: 0,
	StopCurrent:  2,
	StepCurrent:  0.01,
	ResultsPath:  ".",
	FilePrefix:   "lr.csv",
}

// Sample は、1つの負荷電流設定での測定値です。
type Sample struct {
	LoadCurrentSetting float64
	PSUVoltage         float64
	PSUCurrent         float64
	PSUPower           float64
	LoadVoltage        float64
	LoadCurrent        float64
	LoadPower          float64
	Temperature        float64
	OutputVoltage      float64
}

// Result は、計測結果とその条件です。
type Result struct {
	Timestamp time.Time
	Meta      *Meta
	Samples   []Sample
}

// LoadRegulation は、負荷電流を掃引しながら電源と負荷と被測定回路の状態を記録します。
type LoadRegulation struct {
	PSU         PowerSupply
	Load        Load
	Thermometer Meter
	OutputMeter Meter

	// Sleep と Now は、テストで差し替えるためのものです。
	Sleep func(time.Duration)
	Now   func() time.Time

	Stopper
}

// Currents は、start から stop まで step 刻みの電流値の列を返します。
func Currents(start, stop, step float64) ([]float64, error) {
	if step <= 0 || stop < start {
		return nil, errors.Errorf("invalid current sweep %g..%g step %g", start, stop, step)
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	currents := make([]float64, n)
	for i := range currents {
		currents[i] = math.Round((start+float64(i)*step)*1e6) / 1e6
	}
	return currents, nil
}

func (lr *LoadRegulation) sleep(d time.Duration) {
	if lr.Sleep != nil {
		lr.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (lr *LoadRegulation) now() time.Time {
	if lr.Now != nil {
		return lr.Now()
	}
	return time.Now()
}

func (lr *LoadRegulation) instruments() []instrument.Instrument {
	return []instrument.Instrument{lr.Load, lr.PSU, lr.Thermometer, lr.OutputMeter}
}

// Meta は、計測条件と計測器の識別文字列からメタデータを作ります。
func (lr *LoadRegulation) Meta(opts *LoadRegulationOptions, currents []float64, ts time.Time) (*Meta, error) {
	ids := []string{}
	for _, inst := range lr.instruments() {
		id, err := inst.IDString()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	m := &Meta{}
	m.Set("Script", "scpilab loadreg")
	m.Set("Timestamp", ts.Format(TimestampLayout))
	m.Set("Run ID", uuid.New().String())
	m.Set("Instruments", strings.Join(ids, " "))
	m.Set("Version", opts.Version)
	m.Set("DUT", opts.DUT)
	m.SetFloat("Set input voltage", opts.InputVoltage)
	m.SetFloat("Set output voltage", opts.PSUVoltage)
	m.SetFloat("Set output current", opts.PSUCurrent)
	m.Set("PSU sense", string(opts.Sense))
	m.Set("File name prefix", opts.FilePrefix)
	m.SetFloat("Load settling time", opts.SettlingTime.Seconds())
	m.SetFloats("load currents", currents)
	m.Set("results path", opts.ResultsPath)
	return m, nil
}

// Run は、負荷変動計測を実行します。
// 成否にかかわらず、最後に負荷の入力と電源の出力を切ります。
func (lr *LoadRegulation) Run(opts *LoadRegulationOptions) (result *Result, err error) {
	currents, err := Currents(opts.StartCurrent, opts.StopCurrent, opts.StepCurrent)
	if err != nil {
		return nil, err
	}
	lr.begin()
	defer lr.end()
	defer func() {
		if err != nil {
			log.Errorf("load regulation failed: %+v", err)
		}
		if serr := lr.Shutdown(); serr != nil {
			log.Errorf("shutdown failed: %s", serr)
			err = multierr.Append(err, serr)
		}
	}()
	ts := lr.now()
	meta, err := lr.Meta(opts, currents, ts)
	if err != nil {
		return nil, err
	}
	for _, e := range meta.Entries() {
		log.Infof("%s: %s", e.Key, e.Value)
	}
	if lr.Stopped() {
		return nil, errors.WithStack(ErrInterrupted)
	}
	if err := lr.setup(opts); err != nil {
		return nil, err
	}
	result = &Result{Timestamp: ts, Meta: meta}
	log.Enter()
	defer log.Leave()
	for _, current := range currents {
		if lr.Stopped() {
			return nil, errors.Wrapf(ErrInterrupted, "at %gA", current)
		}
		s, err := lr.sample(current, opts.SettlingTime)
		if err != nil {
			return nil, errors.Wrapf(err, "at %gA", current)
		}
		log.Debugf("%gA: psu %gV %gA, load %gV %gA, out %gV, %g°C", current, s.PSUVoltage, s.PSUCurrent, s.LoadVoltage, s.LoadCurrent, s.OutputVoltage, s.Temperature)
		result.Samples = append(result.Samples, s)
	}
	return result, nil
}

func (lr *LoadRegulation) setup(opts *LoadRegulationOptions) error {
	if err := lr.PSU.SetVoltage(opts.PSUVoltage); err != nil {
		return err
	}
	if err := lr.PSU.SetCurrent(opts.PSUCurrent); err != nil {
		return err
	}
	if err := lr.PSU.SetMode(opts.Sense); err != nil {
		return err
	}
	if err := lr.PSU.SetEnableOutput(true); err != nil {
		return err
	}
	return lr.Load.SetEnableInput(true)
}

func (lr *LoadRegulation) sample(current float64, settling time.Duration) (Sample, error) {
	s := Sample{LoadCurrentSetting: current}
	if err := lr.Load.SetCurrent(current); err != nil {
		return s, err
	}
	lr.sleep(settling)
	reads := []struct {
		dst  *float64
		read func() (float64, error)
	}{
		{&s.PSUVoltage, lr.PSU.MeasureVoltage},
		{&s.PSUCurrent, lr.PSU.MeasureCurrent},
		{&s.PSUPower, lr.PSU.MeasurePower},
		{&s.LoadVoltage, lr.Load.MeasureVoltage},
		{&s.LoadCurrent, lr.Load.MeasureCurrent},
		{&s.LoadPower, lr.Load.MeasurePower},
		{&s.Temperature, lr.Thermometer.Fetch},
		{&s.OutputVoltage, lr.OutputMeter.Fetch},
	}
	for _, r := range reads {
		v, err := r.read()
		if err != nil {
			return s, err
		}
		*r.dst = v
	}
	return s, nil
}

// Shutdown は、負荷の入力と電源の出力を切ります。一方が失敗しても他方は必ず試みます。
func (lr *LoadRegulation) Shutdown() error {
	var err error
	if lr.Load != nil {
		err = multierr.Append(err, lr.Load.SetEnableInput(false))
	}
	if lr.PSU != nil {
		err = multierr.Append(err, lr.PSU.SetEnableOutput(false))
	}
	return err
}
