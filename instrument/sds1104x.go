package instrument

import (
	"fmt"
	"strings"

	"github.com/but80/scpilab/scpi"
	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
)

const (
	// ScopeChannels は、SDS1104X-C のアナログチャンネル数です。
	ScopeChannels = 4
	// WaveformReadSize は、波形データを読み出すときの1回の受信サイズです。
	WaveformReadSize = 1 << 16
	// codesPerDivision は、波形データの1目盛りあたりのコード数です。
	codesPerDivision = 25.0
)

// ErrScopeStopped は、停止中に変更できない設定を変更しようとしたことを表します。
var ErrScopeStopped = errors.New("scope: cannot change setting in stop mode")

// ErrBulkReadMode は、最後のチャンクしか返さないトランスポートで波形を取り出そうとしたことを表します。
var ErrBulkReadMode = errors.New("scope: waveform capture needs read_mode accumulate")

// SDS1104X common header commands.
var (
	SDS1104XHeaderType = scpi.Command{Category: scpi.CategoryCommon, Mnemonic: "CHDR"} // SHORT, LONG, OFF
)

// SDS1104X acquisition commands.
var (
	SDS1104XArm               = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "ARM"}
	SDS1104XStop              = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "STOP"}
	SDS1104XAcquireWay        = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "ACQW"}
	SDS1104XAcquireAverages   = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "AVGA"}
	SDS1104XMemorySize        = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "MSIZ"}
	SDS1104XSampleStatus      = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "SAST"}
	SDS1104XSampleRate        = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "SARA"}
	SDS1104XSampleCount       = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "SANU"}
	SDS1104XSinXInterpolation = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "SXSA"}
	SDS1104XXYDisplay         = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "XYDS"}
	SDS1104XAutoSetup         = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "ASET"}
	SDS1104XWaveform          = scpi.Command{Category: scpi.CategoryAcquisition, Mnemonic: "WF"}
)

// SDS1104X channel commands. 実際のニーモニックには "C1:" のようなチャンネル接頭辞が付きます。
var (
	SDS1104XAttenuation      = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "ATTN"}
	SDS1104XBandwidthLimit   = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "BWL"}
	SDS1104XCoupling         = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "CPL"}
	SDS1104XOffset           = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "OFST"}
	SDS1104XSkew             = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "SKEW"}
	SDS1104XTrace            = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "TRA"}
	SDS1104XUnit             = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "UNIT"}
	SDS1104XVoltsPerDivision = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "VDIV"}
	SDS1104XInvert           = scpi.Command{Category: scpi.CategoryChannel, Mnemonic: "INVS"}
)

// SDS1104X time base commands.
var (
	SDS1104XTimeDivision = scpi.Command{Category: scpi.CategoryTimeBase, Mnemonic: "TDIV"}
)

func init() {
	scpi.MustValidate(
		SDS1104XHeaderType,
		SDS1104XArm, SDS1104XStop, SDS1104XAcquireWay, SDS1104XAcquireAverages, SDS1104XMemorySize,
		SDS1104XSampleStatus, SDS1104XSampleRate, SDS1104XSampleCount, SDS1104XSinXInterpolation,
		SDS1104XXYDisplay, SDS1104XAutoSetup, SDS1104XWaveform,
		SDS1104XAttenuation, SDS1104XBandwidthLimit, SDS1104XCoupling, SDS1104XOffset, SDS1104XSkew,
		SDS1104XTrace, SDS1104XUnit, SDS1104XVoltsPerDivision, SDS1104XInvert,
		SDS1104XTimeDivision,
	)
}

// SDS1104X は、Siglent SDS1104X-C オシロスコープです。
type SDS1104X struct {
	*scpi.Session
}

func NewSDS1104X(t transport.Transport) *SDS1104X {
	return &SDS1104X{scpi.NewSession(t)}
}

// channel は、チャンネル接頭辞付きのコマンドを返します。
func channel(ch int, cmd scpi.Command) (scpi.Command, error) {
	if ch < 1 || ScopeChannels < ch {
		return scpi.Command{}, errors.Errorf("invalid channel %d (want 1..%d)", ch, ScopeChannels)
	}
	return scpi.Command{Category: cmd.Category, Mnemonic: fmt.Sprintf("C%d:%s", ch, cmd.Mnemonic)}, nil
}

func (o *SDS1104X) SetHeaderType(t string) error {
	return o.Set(SDS1104XHeaderType, t)
}

// Run は、取り込みを開始します。
func (o *SDS1104X) Run() error {
	return o.Set(SDS1104XArm, "")
}

// Stop は、取り込みを停止します。
func (o *SDS1104X) Stop() error {
	return o.Set(SDS1104XStop, "")
}

func (o *SDS1104X) AutoSetup() error {
	return o.Set(SDS1104XAutoSetup, "")
}

// SampleStatus は、"SAST Trig'd" のような取り込み状態を返します。
func (o *SDS1104X) SampleStatus() (string, error) {
	return o.Query(SDS1104XSampleStatus, "")
}

// SetXYDisplay は、X-Y表示を切り替えます。停止中は ErrScopeStopped を返します。
func (o *SDS1104X) SetXYDisplay(enabled bool) error {
	st, err := o.SampleStatus()
	if err != nil {
		return err
	}
	if strings.Contains(st, "Stop") {
		return errors.WithStack(ErrScopeStopped)
	}
	return o.Set(SDS1104XXYDisplay, onOff(enabled))
}

func (o *SDS1104X) XYDisplay() (bool, error) {
	r, err := o.Query(SDS1104XXYDisplay, "")
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(r), "ON"), nil
}

func (o *SDS1104X) SampleRate() (float64, error) {
	return o.queryQuantity(SDS1104XSampleRate, "")
}

// SampleCount は、指定チャンネルで取り込まれたサンプル数を返します。
func (o *SDS1104X) SampleCount(ch int) (int, error) {
	if _, err := channel(ch, SDS1104XSampleCount); err != nil {
		return 0, err
	}
	v, err := o.queryQuantity(SDS1104XSampleCount, fmt.Sprintf("C%d", ch))
	return int(v), err
}

// TimeDivision は、時間軸の1目盛り [s] を返します。
func (o *SDS1104X) TimeDivision() (float64, error) {
	return o.queryQuantity(SDS1104XTimeDivision, "")
}

func (o *SDS1104X) SetTimeDivision(seconds float64) error {
	return o.Set(SDS1104XTimeDivision, formatFloat(seconds)+"S")
}

// VoltsPerDivision は、指定チャンネルの垂直軸の1目盛り [V] を返します。
func (o *SDS1104X) VoltsPerDivision(ch int) (float64, error) {
	cmd, err := channel(ch, SDS1104XVoltsPerDivision)
	if err != nil {
		return 0, err
	}
	return o.queryQuantity(cmd, "")
}

func (o *SDS1104X) SetVoltsPerDivision(ch int, volts float64) error {
	cmd, err := channel(ch, SDS1104XVoltsPerDivision)
	if err != nil {
		return err
	}
	return o.Set(cmd, formatFloat(volts)+"V")
}

// Offset は、指定チャンネルのオフセット [V] を返します。
func (o *SDS1104X) Offset(ch int) (float64, error) {
	cmd, err := channel(ch, SDS1104XOffset)
	if err != nil {
		return 0, err
	}
	return o.queryQuantity(cmd, "")
}

func (o *SDS1104X) SetOffset(ch int, volts float64) error {
	cmd, err := channel(ch, SDS1104XOffset)
	if err != nil {
		return err
	}
	return o.Set(cmd, formatFloat(volts)+"V")
}

func (o *SDS1104X) SetTrace(ch int, enabled bool) error {
	cmd, err := channel(ch, SDS1104XTrace)
	if err != nil {
		return err
	}
	return o.Set(cmd, onOff(enabled))
}

func (o *SDS1104X) TraceEnabled(ch int) (bool, error) {
	cmd, err := channel(ch, SDS1104XTrace)
	if err != nil {
		return false, err
	}
	r, err := o.Query(cmd, "")
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(r), "ON"), nil
}

// WaveformData は、指定チャンネルの波形の生データ (符号付き8bitコード) を取り出します。
// 応答は大きいので Write の後に ReadRaw で確定長ブロックが揃うまで読み続けます。
// ReadLastChunk のトランスポートではブロックの先頭が失われるため、何も送らずに ErrBulkReadMode を返します。
func (o *SDS1104X) WaveformData(ch int) ([]byte, error) {
	cmd, err := channel(ch, SDS1104XWaveform)
	if err != nil {
		return nil, err
	}
	if transport.ReadModeOf(o.Transport()) == transport.ReadLastChunk {
		return nil, errors.WithStack(ErrBulkReadMode)
	}
	if err := o.Write(cmd, "DAT2", true); err != nil {
		return nil, err
	}
	var buf []byte
	for {
		b, err := o.ReadRaw(WaveformReadSize)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		data, end, err := scpi.ParseBlock(buf)
		if err != nil {
			return nil, err
		}
		if 0 < end && end < len(buf) {
			return data, nil
		}
	}
}

// Waveform は、指定チャンネルの波形を電圧 [V] の列として返します。
func (o *SDS1104X) Waveform(ch int) ([]float64, error) {
	vdiv, err := o.VoltsPerDivision(ch)
	if err != nil {
		return nil, err
	}
	offset, err := o.Offset(ch)
	if err != nil {
		return nil, err
	}
	data, err := o.WaveformData(ch)
	if err != nil {
		return nil, err
	}
	volts := make([]float64, len(data))
	for i, code := range data {
		volts[i] = float64(int8(code))*vdiv/codesPerDivision - offset
	}
	return volts, nil
}

func (o *SDS1104X) queryQuantity(cmd scpi.Command, params string) (float64, error) {
	r, err := o.Query(cmd, params)
	if err != nil {
		return 0, err
	}
	return scpi.ParseQuantity(r)
}
