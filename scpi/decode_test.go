package scpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloatSentinel(t *testing.T) {
	v, err := ParseFloat("9.90000000E+37")
	require.NoError(t, err)
	assert.Equal(t, 9.9e37, v)
}

func TestParseFloatInvalid(t *testing.T) {
	_, err := ParseFloat("OVERLOAD")
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"C1:VDIV 5.00E-01V", 0.5},
		{"C2:OFST -3.00E+00V", -3},
		{"TDIV 1.00E-03S", 1e-3},
		{"SARA 1.00E+09Sa/s", 1e9},
		{"CH1:VOLT 1.200", 1.2},
		{"2.5", 2.5},
	}
	for _, tt := range tests {
		got, err := ParseQuantity(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-12, tt.in)
	}
	_, err := ParseQuantity("")
	assert.True(t, IsDecodeError(err))
}

func TestParseHex(t *testing.T) {
	for in, want := range map[string]uint64{
		"0x0010": 0x10,
		"0X130":  0x130,
		"20":     0x20,
	} {
		got, err := ParseHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseHex("zz")
	assert.True(t, IsDecodeError(err))
}

func TestParseBlock(t *testing.T) {
	data, end, err := ParseBlock([]byte("C1:WF DAT2,#15abcde\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 19, end)
	assert.Equal(t, "abcde", string(data))

	_, end, err = ParseBlock([]byte("C1:WF DAT2,#9000000"))
	require.NoError(t, err)
	assert.Equal(t, 0, end)

	_, end, err = ParseBlock([]byte("#210abc"))
	require.NoError(t, err)
	assert.Equal(t, 0, end)

	_, _, err = ParseBlock([]byte("#x"))
	assert.True(t, IsDecodeError(err))
}

func TestCommandValidate(t *testing.T) {
	assert.NoError(t, Identify.Validate())
	assert.NoError(t, Command{Category: CategorySource, Mnemonic: "OUTP CH1,ON"}.Validate())
	assert.Error(t, Command{Category: CategorySource}.Validate())
	assert.Error(t, Command{Category: CategorySource, Mnemonic: " MEAS:VOLT"}.Validate())
	assert.Error(t, Command{Category: CategorySource, Mnemonic: "MEAS:VOLT?"}.Validate())
	assert.Error(t, Command{Category: CategorySource, Mnemonic: "MEAS\tVOLT"}.Validate())
	assert.Panics(t, func() {
		MustValidate(Reset, Command{Category: CategoryRaw})
	})
}

func TestRaw(t *testing.T) {
	assert.Equal(t, Command{Category: CategoryRaw, Mnemonic: "MEAS:VOLT:DC"}, Raw(" MEAS:VOLT:DC? "))
	assert.Equal(t, "raw", Raw("*IDN").Category.String())
}
