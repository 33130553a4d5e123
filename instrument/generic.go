package instrument

import (
	"github.com/but80/scpilab/scpi"
	"github.com/but80/scpilab/transport"
)

// Generic は、共通コマンドのみを扱う計測器です。
type Generic struct {
	*scpi.Session
}

func NewGeneric(t transport.Transport) *Generic {
	return &Generic{scpi.NewSession(t)}
}
