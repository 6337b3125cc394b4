package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    domain.Value
		want string
	}{
		{domain.Int(-12), "-12"},
		{domain.Float(2), "2.0"},
		{domain.Float(2.5), "2.5"},
		{domain.Float(math.Inf(1)), "inf"},
		{domain.Float(math.NaN()), "nan"},
		{domain.String("ON"), "ON"},
		{domain.None(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, domain.Int(3).Equal(domain.Float(3)))
	assert.False(t, domain.Int(3).Equal(domain.String("3")))
	assert.True(t, domain.None().Equal(domain.None()))
	assert.False(t, domain.String("a").Equal(domain.String("b")))
}

func TestFromAny(t *testing.T) {
	v, ok := domain.FromAny(uint16(0xF00F))
	require.True(t, ok)
	assert.Equal(t, int64(0xF00F), v.Any())

	v, ok = domain.FromAny(true)
	require.True(t, ok)
	assert.True(t, v.Equal(domain.Int(1)))

	v, ok = domain.FromAny(nil)
	require.True(t, ok)
	assert.True(t, v.IsNone())

	_, ok = domain.FromAny([]int{1})
	assert.False(t, ok)
}

func TestValue_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]domain.Value{
		"i": domain.Int(7),
		"f": domain.Float(1.5),
		"s": domain.String("x"),
		"n": domain.None(),
		"p": domain.Float(math.Inf(1)),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"i":7,"f":1.5,"s":"x","n":null,"p":"inf"}`, string(data))
}

func TestFieldKey_Names(t *testing.T) {
	k := domain.HexKey(0x1234)
	assert.True(t, k.IsHex())
	assert.Equal(t, "0x1234", k.String())
	assert.Equal(t, "H0x1234", k.DisplayName())

	v := domain.TextKey("V")
	assert.False(t, v.IsHex())
	assert.Equal(t, "V", v.String())
	assert.Equal(t, "V", v.DisplayName())
}

func TestParseProtocol(t *testing.T) {
	p, err := domain.ParseProtocol(" Text_Hex ")
	require.NoError(t, err)
	assert.True(t, p.HasText())
	assert.True(t, p.HasHex())

	p, err = domain.ParseProtocol("hex")
	require.NoError(t, err)
	assert.False(t, p.HasText())

	_, err = domain.ParseProtocol("binary")
	assert.Error(t, err)
}

func TestParseStopCondition(t *testing.T) {
	for in, want := range map[string]domain.StopCondition{
		"text":     domain.StopText,
		"hex":      domain.StopHex,
		"text-hex": domain.StopTextHex,
		"text_hex": domain.StopTextHex,
		"NONE":     domain.StopNone,
	} {
		got, err := domain.ParseStopCondition(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := domain.ParseStopCondition("forever")
	assert.Error(t, err)
}
