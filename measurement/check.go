package measurement

import (
	"fmt"
	"io"

	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/log"
	"github.com/pkg/errors"
)

// TriggeredMeter は、トリガモードを切り替えられるマルチメータです。
type TriggeredMeter interface {
	Meter
	Read() (float64, error)
	TriggerMode() (instrument.TriggerMode, error)
	SetTriggerMode(mode instrument.TriggerMode) error
	MeasureVoltageDC(voltageRange string) (float64, error)
}

// Scope は、X-Y表示を切り替えられるオシロスコープです。
type Scope interface {
	instrument.Instrument
	Run() error
	Stop() error
	SampleStatus() (string, error)
	SetXYDisplay(enabled bool) error
	XYDisplay() (bool, error)
}

// Check は、計測器がひととおり応答するかを確かめる手順です。
type Check struct {
	Meter TriggeredMeter
	Scope Scope
	PSU   instrument.Instrument
	Out   io.Writer
}

func (c *Check) printf(f string, args ...interface{}) {
	fmt.Fprintf(c.Out, f+"\n", args...)
}

// Run は、識別文字列の取得から X-Y 表示の切り替えまでを順に実行し、結果を Out に書き出します。
// 最初に失敗した手順のエラーを返します。
func (c *Check) Run() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"identify", c.identify},
		{"meter readings", c.meterReadings},
		{"meter trigger mode", c.meterTriggerMode},
		{"scope x-y display", c.scopeXYDisplay},
	}
	for _, s := range steps {
		log.Debugf("check: %s", s.name)
		if err := s.fn(); err != nil {
			log.Errorf("check %s failed: %s", s.name, err)
			return errors.Wrap(err, s.name)
		}
	}
	return nil
}

func (c *Check) identify() error {
	for _, inst := range []instrument.Instrument{c.Meter, c.Scope, c.PSU} {
		id, err := inst.IDString()
		if err != nil {
			return err
		}
		c.printf("%s", id)
	}
	return nil
}

func (c *Check) meterReadings() error {
	v, err := c.Meter.Fetch()
	if err != nil {
		return err
	}
	c.printf("%s", formatVolts(v))
	v, err = c.Meter.Read()
	if err != nil {
		return err
	}
	c.printf("%s", formatVolts(v))
	return nil
}

func (c *Check) meterTriggerMode() error {
	mode, err := c.Meter.TriggerMode()
	if err != nil {
		return err
	}
	c.printf("%s", mode)
	if err := c.Meter.SetTriggerMode(instrument.TriggerSingle); err != nil {
		return err
	}
	if err := c.Meter.WaitUntilOperationIsCompleted(); err != nil {
		return err
	}
	mode, err = c.Meter.TriggerMode()
	if err != nil {
		return err
	}
	c.printf("%s", mode)
	return nil
}

func (c *Check) scopeXYDisplay() error {
	if err := c.Scope.Run(); err != nil {
		return err
	}
	if err := c.Scope.SetXYDisplay(true); err != nil {
		return err
	}
	if err := c.Scope.WaitUntilOperationIsCompleted(); err != nil {
		return err
	}
	v, err := c.Meter.MeasureVoltageDC(instrument.RangeAuto)
	if err != nil {
		return err
	}
	c.printf("%s", formatVolts(v))
	xy, err := c.Scope.XYDisplay()
	if err != nil {
		return err
	}
	c.printf("%t", xy)
	st, err := c.Scope.SampleStatus()
	if err != nil {
		return err
	}
	c.printf("%s", st)
	if err := c.Scope.SetXYDisplay(false); err != nil {
		return err
	}
	if err := c.Scope.WaitUntilOperationIsCompleted(); err != nil {
		return err
	}
	return c.Scope.Stop()
}

// overRange は、マルチメータが範囲外の入力に対して返す値です。
const overRange = 9.9e37

func formatVolts(v float64) string {
	if overRange <= v {
		return "OVERLOAD"
	}
	return fmt.Sprintf("%.6f V", v)
}
