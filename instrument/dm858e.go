package instrument

import (
	"github.com/but80/scpilab/scpi"
	"github.com/but80/scpilab/transport"
)

var (
	DM858EFetch = scpi.Command{Category: scpi.CategorySystem, Mnemonic: "FETC"}
	DM858ERead  = scpi.Command{Category: scpi.CategorySystem, Mnemonic: "READ"}
)

func init() {
	scpi.MustValidate(DM858EFetch, DM858ERead)
}

// DM858E は、Rigol DM858E デジタルマルチメータです。
type DM858E struct {
	*scpi.Session
}

func NewDM858E(t transport.Transport) *DM858E {
	return &DM858E{scpi.NewSession(t)}
}

// Fetch は、直前の測定値を返します。
func (m *DM858E) Fetch() (float64, error) {
	return m.QueryFloat(DM858EFetch, "")
}

// Read は、新たに測定して値を返します。
func (m *DM858E) Read() (float64, error) {
	return m.QueryFloat(DM858ERead, "")
}
