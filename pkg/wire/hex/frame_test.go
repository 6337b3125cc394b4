package hex_test

import (
	"testing"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/wire/hex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckChecksum(t *testing.T) {
	assert.True(t, hex.CheckChecksum("12340F"))
	assert.False(t, hex.CheckChecksum("12340E"))
	assert.True(t, hex.CheckChecksum("154"))
	assert.False(t, hex.CheckChecksum("1"))
}

func TestFrame(t *testing.T) {
	cases := []struct {
		cmd     hex.Command
		payload string
		want    string
	}{
		{hex.RespPing, "3412", ":534120A\n"},
		{hex.RespDone, "3412", ":134120E\n"},
		{hex.RespDone, "7856", ":1785686\n"},
		{hex.RespError, "0000", ":4000051\n"},
		{hex.RespError, hex.ChecksumErrorPayload, ":4AAAAFD\n"},
		{hex.RespUnknown, "0200", ":3020050\n"},
		{hex.CmdGet, "3412000FF0", ":73412000FF009\n"},
		{hex.CmdGet, "341201", ":712340107\n"},
	}
	for _, tc := range cases {
		got, err := hex.Frame(tc.cmd, tc.payload)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got))
	}
}

func TestFrame_BadPayload(t *testing.T) {
	_, err := hex.Frame(hex.CmdGet, "XYZ")
	assert.ErrorIs(t, err, hex.ErrBadPayload)
}

func TestDecode(t *testing.T) {
	msg, err := hex.Decode([]byte("\x00:73412\x00\x000008\r\n"))
	require.NoError(t, err)
	assert.Equal(t, hex.CmdGet, msg.Command)
	assert.Equal(t, "341200", msg.Payload())

	msg, err = hex.Decode([]byte(":155\n"))
	assert.ErrorIs(t, err, hex.ErrBadChecksum)
	assert.Equal(t, hex.CmdPing, msg.Command)

	_, err = hex.Decode([]byte("V\t12\n"))
	assert.ErrorIs(t, err, hex.ErrNotFrame)

	_, err = hex.Decode([]byte(":\n"))
	assert.ErrorIs(t, err, hex.ErrEmptyFrame)
}

func TestDecode_LowerCase(t *testing.T) {
	msg, err := hex.Decode([]byte(":73412000ff009\n"))
	require.NoError(t, err)
	assert.Equal(t, "3412000FF0", msg.Payload())
}

func TestValidResponsesSumTo55(t *testing.T) {
	for _, payload := range []string{"", "00", "3412", "ABCDEF", "FFFFFFFFFF"} {
		frame, err := hex.Frame(hex.CmdAsync, payload)
		require.NoError(t, err)
		body := string(frame[1 : len(frame)-1])
		assert.True(t, hex.CheckChecksum(body), "payload %q", payload)
	}
}

func TestIntToHex(t *testing.T) {
	assert.Equal(t, "12AB", hex.IntToHex(0xAB12, 2))
	assert.Equal(t, "12AB0000", hex.IntToHex(0xAB12, 4))
	assert.Equal(t, "FFFF", hex.IntToHex(-1, 2))
	assert.Equal(t, "34", hex.IntToHex(0x1234, 1))
	assert.Equal(t, "", hex.IntToHex(5, 0))
}

func TestStringToHex(t *testing.T) {
	assert.Equal(t, "546573740000", hex.StringToHex("Test", 6))
	assert.Equal(t, "54657374", hex.StringToHex("Test", 1))
}

func TestEncodeValue(t *testing.T) {
	assert.Equal(t, "0FF0", hex.EncodeValue(domain.Int(0xF00F), 16))
	assert.Equal(t, "0A", hex.EncodeValue(domain.Int(10), 5))
	assert.Equal(t, "2D2D2D", hex.EncodeValue(domain.String("---"), 8))
	assert.Equal(t, "312E35", hex.EncodeValue(domain.Float(1.5), 8))
	assert.Equal(t, "", hex.EncodeValue(domain.None(), 8))
}

func TestDecodeLittleEndian(t *testing.T) {
	v, err := hex.DecodeLittleEndian("3412", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0x1234), v)

	v, err = hex.DecodeLittleEndian("FFFF", true)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	v, err = hex.DecodeLittleEndian("FFFF", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0xFFFF), v)

	_, err = hex.DecodeLittleEndian("GG", false)
	assert.ErrorIs(t, err, hex.ErrBadPayload)
}

func TestParseID(t *testing.T) {
	id, err := hex.ParseID("3412")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), id)
	assert.Equal(t, "3412", hex.IDToHex(0x1234))

	_, err = hex.ParseID("34")
	assert.Error(t, err)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "get", hex.CmdGet.String())
	assert.Equal(t, "unknown", hex.Command('9').String())
}
