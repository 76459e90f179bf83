package bytecode

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitMagic() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, Magic)
	return buf
}

func emitUint16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

func TestConstRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    Const
	}{
		{"num", NumConst{Value: 42.5}},
		{"num negative", NumConst{Value: -1}},
		{"bool true", BoolConst{Value: true}},
		{"bool false", BoolConst{Value: false}},
		{"nil", NilConst{}},
		{"empty", EmptyConst{}},
		{"ascii str", StrConst{Value: "hello", Ascii: true, IsInterned: true}},
		{"utf16 str", StrConst{Value: "café", Encoding: Utf16, IsInterned: true}},
		{"utf32 str", StrConst{Value: "\U0001F680", Encoding: Utf32, IsInterned: true}},
		{
			"table",
			TableConst{Entries: []Const{
				StrConst{Value: "k", Ascii: true, IsInterned: true}, NumConst{Value: 1},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.c.Emit()
			decoded, n, err := Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, len(buf), n)
			assert.True(t, tt.c.Equal(decoded), "decoded %v did not equal original %v", decoded, tt.c)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode(nil)
	assert.Error(t, err)

	_, _, err = Decode([]byte{byte(valNum), 1, 2})
	assert.Error(t, err)
}

func TestContainerRoundTrip(t *testing.T) {
	consts := []Const{NumConst{Value: 7}, StrConst{Value: "x", Ascii: true, IsInterned: true}}
	debug := []DebugEntry{{Offset: 0, Line: 1}, {Offset: 3, Line: 2}}
	code := []byte{byte(ONE), 0, byte(RET), 0}
	path := "/src/demo.neve"

	out := make([]byte, 0)
	out = append(out, emitMagic()...)
	for _, c := range consts {
		out = append(out, c.Emit()...)
	}
	out = append(out, SectionSep)

	debugBytes := emitUint16(uint16(len(path)))
	debugBytes = append(debugBytes, []byte(path)...)
	for _, d := range debug {
		debugBytes = append(debugBytes, emitUint32(d.Offset)...)
		debugBytes = append(debugBytes, emitUint32(d.Line)...)
	}
	out = append(out, emitUint16(uint16(len(debugBytes)))...)
	out = append(out, debugBytes...)

	out = append(out, SectionSep)
	out = append(out, code...)
	out = append(out, make([]byte, trailingPadLen)...)

	container, err := DecodeContainer(out)
	require.NoError(t, err)
	assert.Equal(t, path, container.SourcePath)
	assert.Equal(t, code, container.Code)
	assert.Equal(t, debug, container.Debug)
	require.Len(t, container.Consts, 2)
	assert.True(t, container.Consts[0].Equal(consts[0]))
	assert.True(t, container.Consts[1].Equal(consts[1]))
}

func TestContainerBadMagic(t *testing.T) {
	_, err := DecodeContainer([]byte{0, 0, 0, 0})
	assert.Error(t, err)
}

func TestContainerStartsWithExactMagicBytes(t *testing.T) {
	out := emitMagic()
	assert.Equal(t, []byte{0xBA, 0xDB, 0xED, 0x00}, out)
}

func TestContainerMissingTrailingPad(t *testing.T) {
	out := emitMagic()
	out = append(out, SectionSep)
	out = append(out, emitUint16(2)...) // debug section holds only the zero path length
	out = append(out, emitUint16(0)...)
	out = append(out, SectionSep)

	_, err := DecodeContainer(out)
	assert.Error(t, err)
}

func TestDisassemble(t *testing.T) {
	c := &Container{Code: []byte{
		byte(ZERO), 0,
		byte(ADD), 0, 1, 2,
		byte(RET), 2,
	}}

	instrs, err := c.Disassemble()
	require.NoError(t, err)
	require.Len(t, instrs, 3)
	assert.Equal(t, ZERO, instrs[0].Op)
	assert.Equal(t, ADD, instrs[1].Op)
	assert.Equal(t, []byte{0, 1, 2}, instrs[1].Operands)
	assert.Equal(t, RET, instrs[2].Op)
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	c := &Container{Code: []byte{0xFE}}
	_, err := c.Disassemble()
	assert.Error(t, err)
}

func TestLineFor(t *testing.T) {
	c := &Container{Debug: []DebugEntry{{Offset: 0, Line: 1}, {Offset: 5, Line: 3}}}
	assert.Equal(t, uint32(1), c.LineFor(0))
	assert.Equal(t, uint32(1), c.LineFor(4))
	assert.Equal(t, uint32(3), c.LineFor(5))
	assert.Equal(t, uint32(3), c.LineFor(100))
}
