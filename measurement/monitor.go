package measurement

import (
	"fmt"
	"io"
	"time"

	"github.com/ahmetalpbalkan/go-cursor"
)

// DefaultMonitorInterval は、表示を更新する間隔の既定値です。
const DefaultMonitorInterval = time.Second

// Reading は、監視の1回分の読み取り値です。
type Reading struct {
	PSUVoltage  float64
	PSUCurrent  float64
	PSUPower    float64
	LoadVoltage float64
	LoadCurrent float64
	LoadPower   float64
}

// Monitor は、電源と負荷の読み取り値を一定間隔で画面に表示し続けます。
type Monitor struct {
	PSU      PowerSupply
	Load     Load
	Interval time.Duration
	Out      io.Writer

	Sleep func(time.Duration)
	Stopper
}

// Read は、電源と負荷から1回分の値を読み取ります。
func (m *Monitor) Read() (Reading, error) {
	var r Reading
	reads := []struct {
		dst  *float64
		read func() (float64, error)
	}{
		{&r.PSUVoltage, m.PSU.MeasureVoltage},
		{&r.PSUCurrent, m.PSU.MeasureCurrent},
		{&r.PSUPower, m.PSU.MeasurePower},
		{&r.LoadVoltage, m.Load.MeasureVoltage},
		{&r.LoadCurrent, m.Load.MeasureCurrent},
		{&r.LoadPower, m.Load.MeasurePower},
	}
	for _, x := range reads {
		v, err := x.read()
		if err != nil {
			return r, err
		}
		*x.dst = v
	}
	return r, nil
}

// Print は、画面を消去して読み取り値を表示します。
func (m *Monitor) Print(r Reading) {
	fmt.Fprint(m.Out, cursor.ClearEntireScreen())
	fmt.Fprint(m.Out, cursor.MoveTo(0, 0))
	fmt.Fprintln(m.Out, "       Voltage    Current      Power")
	fmt.Fprintf(m.Out, "PSU  %8.4f V %8.4f A %8.4f W\n", r.PSUVoltage, r.PSUCurrent, r.PSUPower)
	fmt.Fprintf(m.Out, "Load %8.4f V %8.4f A %8.4f W\n", r.LoadVoltage, r.LoadCurrent, r.LoadPower)
}

// Run は、count 回 (0 なら Stop されるまで) 読み取りと表示を繰り返します。
func (m *Monitor) Run(count int) error {
	m.begin()
	defer m.end()
	sleep := m.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for i := 0; !m.Stopped() && (count == 0 || i < count); i++ {
		if 0 < i {
			sleep(m.Interval)
			if m.Stopped() {
				break
			}
		}
		r, err := m.Read()
		if err != nil {
			return err
		}
		m.Print(r)
	}
	return nil
}
