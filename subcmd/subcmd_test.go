package subcmd

import (
	"testing"

	"github.com/but80/scpilab/bench"
	"github.com/but80/scpilab/transport"
	"github.com/but80/scpilab/transport/transporttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMeter(t *testing.T) {
	cfg := &bench.Config{Instruments: []bench.InstrumentConfig{
		{Name: "dmm", Model: "hmc8012", Host: "192.168.1.146"},
		{Name: "dmm2", Model: "dm858e", Host: "192.168.1.237"},
		{Name: "psu", Model: "spd1305x", Host: "192.168.1.249"},
	}}
	b, err := bench.OpenWith(cfg, func(kind transport.Kind, address string, port int, opts transport.Options) (transport.Transport, error) {
		return transporttest.New(), nil
	})
	require.NoError(t, err)
	defer b.Close()

	for _, name := range []string{"dmm", "dmm2"} {
		m, err := lookupMeter(b, name)
		require.NoError(t, err)
		assert.NotNil(t, m)
	}
	_, err = lookupMeter(b, "psu")
	assert.Error(t, err)
	_, err = lookupMeter(b, "scope")
	assert.Error(t, err)
}
