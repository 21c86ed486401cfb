package netproto

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveEncodesStableFieldOrderLittleEndian(t *testing.T) {
	p := Move{
		EntityID:  7,
		DestX:     1.5,
		DestY:     -2.5,
		OrigX:     0,
		OrigY:     0,
		Speed:     200,
		NowTicks:  1000,
		DestTicks: 2000,
	}
	buf := p.Encode()

	require.Equal(t, 1+4+4*5+8*2, len(buf))
	assert.Equal(t, byte(OpMove), buf[0])
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[1:5]))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[5:9])))
	assert.Equal(t, float32(-2.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[9:13])))
	assert.Equal(t, float32(200), math.Float32frombits(binary.LittleEndian.Uint32(buf[21:25])))
	assert.Equal(t, int64(1000), int64(binary.LittleEndian.Uint64(buf[25:33])))
	assert.Equal(t, int64(2000), int64(binary.LittleEndian.Uint64(buf[33:41])))
}

func TestStopMovementEncoding(t *testing.T) {
	p := StopMovement{EntityID: 3, DestX: 10, DestY: 20, DestTicks: 500}
	buf := p.Encode()
	require.Equal(t, 1+4+4+4+8, len(buf))
	assert.Equal(t, byte(OpStopMovement), buf[0])
}

func TestAddStatusEffectEncodesCountAndEntries(t *testing.T) {
	p := AddStatusEffect{
		EntityID: 9,
		Effects: []StatusEffectEntry{
			{EffectType: 1, ExpirationTicks: 5000, Stack: 2},
			{EffectType: 2, ExpirationTicks: 6000, Stack: 1},
		},
	}
	buf := p.Encode()
	require.Equal(t, 1+4+4+2*(4+8+4), len(buf))
	count := int32(binary.LittleEndian.Uint32(buf[5:9]))
	assert.EqualValues(t, 2, count)
}

func TestRemoveStatusEffectEncodesTypesOnly(t *testing.T) {
	p := RemoveStatusEffect{EntityID: 9, Types: []int32{1, 2, 3}}
	buf := p.Encode()
	require.Equal(t, 1+4+4+3*4, len(buf))
}

func TestInstanceTimerPacketVariantsUseDistinctOpcodes(t *testing.T) {
	cases := []struct {
		pkt Packet
		op  Opcode
	}{
		{TimeTrialUpdate(1, 10, 20), OpTimeTrialUpdate},
		{TimeTrialEnd(1, 10, 2), OpTimeTrialEnd},
		{DemonSoloUpdate(1, 10, 20), OpDemonSoloUpdate},
		{DemonSoloEnd(1, 10, 2), OpDemonSoloEnd},
		{TimeLimitUpdate(1, 10, 20), OpTimeLimitUpdate},
		{TimeLimitEnd(1, 10), OpTimeLimitEnd},
	}
	for _, c := range cases {
		buf := c.pkt.Encode()
		require.NotEmpty(t, buf)
		assert.Equal(t, byte(c.op), buf[0])
	}
}

func TestWriterPoolResetsBetweenUses(t *testing.T) {
	w := Get()
	w.WriteUint32(42)
	first := w.Bytes()
	w.Put()

	w2 := Get()
	w2.WriteByte(1)
	second := w2.Bytes()
	w2.Put()

	assert.Len(t, first, 4)
	assert.Len(t, second, 1)
}
