// Package instrument は、計測器ごとのコマンドテーブルと、型付きの取得・設定操作を提供します。
// 各プロファイルは scpi.Session を埋め込み、その基本操作だけを使って実装されています。
package instrument

import (
	"sort"
	"strconv"
	"strings"

	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
)

// Instrument は、すべての計測器プロファイルに共通する操作です。
type Instrument interface {
	IDString() (string, error)
	Reset() error
	IsOperationComplete() (bool, error)
	WaitUntilOperationIsCompleted() error
	Transport() transport.Transport
}

// Constructor は、接続済みのトランスポートから計測器プロファイルを作成します。
type Constructor func(t transport.Transport) Instrument

var models = map[string]Constructor{
	"dl3021a":   func(t transport.Transport) Instrument { return NewDL3021A(t) },
	"dm858e":    func(t transport.Transport) Instrument { return NewDM858E(t) },
	"hmc8012":   func(t transport.Transport) Instrument { return NewHMC8012(t) },
	"sds1104x":  func(t transport.Transport) Instrument { return NewSDS1104X(t) },
	"spd1305x":  func(t transport.Transport) Instrument { return NewSPD1305X(t) },
	"generic":   func(t transport.Transport) Instrument { return NewGeneric(t) },
	"sds1104xc": func(t transport.Transport) Instrument { return NewSDS1104X(t) },
}

// New は、機種名に対応するプロファイルを作成します。
func New(model string, t transport.Transport) (Instrument, error) {
	c, ok := models[strings.ToLower(model)]
	if !ok {
		return nil, errors.Errorf("unknown instrument model %q (want one of %s)", model, strings.Join(Models(), "|"))
	}
	return c(t), nil
}

// Models は、対応している機種名の一覧を返します。
func Models() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}
