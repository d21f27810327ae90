package bytecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/wirespec/internal/testutil/testlog"
)

func TestParseOrder(t *testing.T) {
	testlog.Start(t)
	o, err := ParseOrder("big")
	require.NoError(t, err)
	assert.Equal(t, BigEndian, o)

	o, err = ParseOrder(" Little ")
	require.NoError(t, err)
	assert.Equal(t, LittleEndian, o)

	_, err = ParseOrder("middle")
	assert.ErrorIs(t, err, ErrByteOrder)
}

func TestResizePadAndTruncate(t *testing.T) {
	testlog.Start(t)
	x := FromUint(1234, 0, BigEndian)
	require.Equal(t, []byte{0x04, 0xd2}, x)

	assert.Equal(t, []byte{0xd2}, Resize(x, 1, BigEndian))
	assert.Equal(t, []byte{0x00, 0x00, 0x04, 0xd2}, Resize(x, 4, BigEndian))
	assert.Equal(t, []byte{0x04}, Resize(x, 1, LittleEndian))
	assert.Equal(t, []byte{0x04, 0xd2, 0x00, 0x00}, Resize(x, 4, LittleEndian))
}

func TestResizeRoundTripIsLossy(t *testing.T) {
	testlog.Start(t)
	x := []byte{0x01, 0x02, 0x03}
	small := Resize(x, 1, BigEndian)
	back := Resize(small, len(x), BigEndian)
	assert.NotEqual(t, x, back)

	// No-op when size is unchanged.
	assert.Equal(t, FromUint(65980, 4, BigEndian), Resize(FromUint(65980, 4, BigEndian), 4, BigEndian))
}

func TestFromUint(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, []byte{0x01, 0x01, 0xbc}, FromUint(65980, 0, BigEndian))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x01, 0xbc}, FromUint(65980, 8, BigEndian))
	assert.Equal(t, []byte{0xbc, 0x01, 0x01}, FromUint(65980, 0, LittleEndian))
	assert.Equal(t, []byte{0x00}, FromUint(0, 0, BigEndian))
}

func TestFromIntNegative(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, []byte{0xff}, FromInt(-1, 1, BigEndian))
	assert.Equal(t, []byte{0xff, 0xfe}, FromInt(-2, 2, BigEndian))
	assert.Equal(t, []byte{0x80}, FromInt(-128, 0, BigEndian))
	assert.Equal(t, []byte{0xff, 0x7f}, FromInt(-129, 0, BigEndian))
}

func TestToUint(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, uint64(65980), ToUint([]byte{0x01, 0x01, 0xbc}, BigEndian))
	assert.Equal(t, uint64(65980), ToUint([]byte{0xbc, 0x01, 0x01}, LittleEndian))
	assert.Equal(t, uint64(0), ToUint(nil, BigEndian))
}

func TestIPv4Conversions(t *testing.T) {
	testlog.Start(t)
	b, err := FromIPv4("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []byte{127, 0, 0, 1}, b)

	s, err := ToIPv4(b)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", s)

	_, err = FromIPv4("not.an.ip")
	assert.ErrorIs(t, err, ErrNotIPv4)
	_, err = ToIPv4([]byte{1, 2})
	assert.ErrorIs(t, err, ErrNotIPv4)

	assert.True(t, IsIPv4("192.168.1.10"))
	assert.False(t, IsIPv4("::1"))
	assert.False(t, IsIPv4("hello"))
}

func TestSize(t *testing.T) {
	testlog.Start(t)
	n, err := Size([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = Size(65980)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = Size(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = Size("nope")
	assert.ErrorIs(t, err, ErrValueType)
}
