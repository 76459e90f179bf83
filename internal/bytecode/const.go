package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
)

// valType is the one-byte tag prefixing every constant-pool entry.
type valType byte

const (
	valNum valType = iota
	valBool
	valNil
	valObj
	valEmpty
)

// objType is the second-level tag for valObj entries.
type objType byte

const (
	objStr objType = iota
	objUStr
	objTable
)

// StrEncoding tags a non-ASCII string constant's byte layout.
type StrEncoding byte

const (
	Utf8 StrEncoding = iota
	Utf16
	Utf32
)

// Const is a deduplicated constant-pool entry. Two constants are equal
// when their kind and value match exactly; for strings, equality
// compares the decoded value and ignores encoding metadata.
type Const interface {
	Emit() []byte
	Equal(other Const) bool
	fmt.Stringer
}

func emitByte(b byte) []byte { return []byte{b} }

func emitUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// NumConst holds an integer or float constant; both are stored as a
// double, so Int and Float share one constant-pool kind.
type NumConst struct {
	Value float64
}

func (n NumConst) Emit() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(n.Value))
	return append(emitByte(byte(valNum)), buf...)
}

func (n NumConst) Equal(other Const) bool {
	o, ok := other.(NumConst)
	return ok && o.Value == n.Value
}

func (n NumConst) String() string { return fmt.Sprint(n.Value) }

// BoolConst holds a boolean constant.
type BoolConst struct {
	Value bool
}

func (b BoolConst) Emit() []byte {
	v := byte(0)
	if b.Value {
		v = 1
	}
	return append(emitByte(byte(valBool)), v)
}

func (b BoolConst) Equal(other Const) bool {
	o, ok := other.(BoolConst)
	return ok && o.Value == b.Value
}

func (b BoolConst) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// NilConst holds the nil constant.
type NilConst struct{}

func (NilConst) Emit() []byte          { return emitByte(byte(valNil)) }
func (NilConst) Equal(other Const) bool { _, ok := other.(NilConst); return ok }
func (NilConst) String() string        { return "nil" }

// EmptyConst is the reserved "no value" tag: encodable, but no
// lowering or folding path in this core ever produces one.
type EmptyConst struct{}

func (EmptyConst) Emit() []byte          { return emitByte(byte(valEmpty)) }
func (EmptyConst) Equal(other Const) bool { _, ok := other.(EmptyConst); return ok }
func (EmptyConst) String() string        { return "()" }

// StrConst holds a string constant. ASCII-interned strings use the
// compact STR encoding (length-prefixed raw bytes); anything else uses
// USTR, which additionally records the decoding and raw byte length.
type StrConst struct {
	Value      string
	Encoding   StrEncoding
	Ascii      bool
	IsInterned bool
}

func (s StrConst) Emit() []byte {
	if s.Ascii {
		out := []byte{byte(valObj), byte(objStr)}
		out = append(out, emitUint32(uint32(len([]rune(s.Value))))...)
		out = append(out, []byte(s.Value)...)
		interned := byte(0)
		if s.IsInterned {
			interned = 1
		}
		return append(out, interned)
	}

	encoded := encodeString(s.Value, s.Encoding)

	out := []byte{byte(valObj), byte(objUStr), byte(s.Encoding)}
	out = append(out, emitUint32(uint32(len([]rune(s.Value))))...)
	out = append(out, emitUint32(uint32(len(encoded)))...)
	out = append(out, encoded...)

	interned := byte(0)
	if s.IsInterned {
		interned = 1
	}
	return append(out, interned)
}

func encodeString(s string, enc StrEncoding) []byte {
	switch enc {
	case Utf16:
		runes := []rune(s)
		buf := make([]byte, 0, len(runes)*2)
		for _, r := range runes {
			if r > 0xFFFF {
				// surrogate pair
				r -= 0x10000
				hi := uint16(0xD800 + (r >> 10))
				lo := uint16(0xDC00 + (r & 0x3FF))
				b := make([]byte, 2)
				binary.LittleEndian.PutUint16(b, hi)
				buf = append(buf, b...)
				binary.LittleEndian.PutUint16(b, lo)
				buf = append(buf, b...)
				continue
			}
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(r))
			buf = append(buf, b...)
		}
		return buf
	case Utf32:
		runes := []rune(s)
		buf := make([]byte, 0, len(runes)*4)
		for _, r := range runes {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(r))
			buf = append(buf, b...)
		}
		return buf
	default:
		return []byte(s)
	}
}

func (s StrConst) Equal(other Const) bool {
	o, ok := other.(StrConst)
	return ok && o.Value == s.Value
}

func (s StrConst) String() string { return s.Value }

// TableConst holds a table literal's flattened (key, value, key,
// value, ...) entry list.
type TableConst struct {
	Entries []Const // alternating key, value
}

func (t TableConst) Emit() []byte {
	out := []byte{byte(valObj), byte(objTable)}
	out = append(out, emitUint32(uint32(len(t.Entries)/2))...)
	for _, e := range t.Entries {
		out = append(out, e.Emit()...)
	}
	return out
}

func (t TableConst) Equal(other Const) bool {
	o, ok := other.(TableConst)
	if !ok || len(o.Entries) != len(t.Entries) {
		return false
	}
	for i := range t.Entries {
		if !t.Entries[i].Equal(o.Entries[i]) {
			return false
		}
	}
	return true
}

// Decode reads one constant-pool entry starting at buf[0] and returns
// it along with the number of bytes it consumed, the inverse of Emit.
func Decode(buf []byte) (Const, int, error) {
	if len(buf) == 0 {
		return nil, 0, fmt.Errorf("bytecode: empty constant entry")
	}

	switch valType(buf[0]) {
	case valNum:
		if len(buf) < 9 {
			return nil, 0, fmt.Errorf("bytecode: truncated num constant")
		}
		bits := binary.LittleEndian.Uint64(buf[1:9])
		return NumConst{Value: math.Float64frombits(bits)}, 9, nil

	case valBool:
		if len(buf) < 2 {
			return nil, 0, fmt.Errorf("bytecode: truncated bool constant")
		}
		return BoolConst{Value: buf[1] != 0}, 2, nil

	case valNil:
		return NilConst{}, 1, nil

	case valEmpty:
		return EmptyConst{}, 1, nil

	case valObj:
		return decodeObj(buf)
	}

	return nil, 0, fmt.Errorf("bytecode: unknown constant tag 0x%02x", buf[0])
}

func decodeObj(buf []byte) (Const, int, error) {
	if len(buf) < 2 {
		return nil, 0, fmt.Errorf("bytecode: truncated object constant")
	}

	switch objType(buf[1]) {
	case objStr:
		pos := 2
		if len(buf) < pos+4 {
			return nil, 0, fmt.Errorf("bytecode: truncated ascii string constant")
		}
		charCount := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if len(buf) < pos+charCount+1 {
			return nil, 0, fmt.Errorf("bytecode: truncated ascii string constant")
		}
		value := string(buf[pos : pos+charCount])
		pos += charCount
		interned := buf[pos] != 0
		pos++
		return StrConst{Value: value, Ascii: true, IsInterned: interned}, pos, nil

	case objUStr:
		pos := 2
		if len(buf) < pos+1 {
			return nil, 0, fmt.Errorf("bytecode: truncated unicode string constant")
		}
		enc := StrEncoding(buf[pos])
		pos++
		if len(buf) < pos+8 {
			return nil, 0, fmt.Errorf("bytecode: truncated unicode string constant")
		}
		pos += 4 // char count, unused when decoding back to a Go string
		byteLen := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if len(buf) < pos+byteLen+1 {
			return nil, 0, fmt.Errorf("bytecode: truncated unicode string constant")
		}
		value := decodeString(buf[pos:pos+byteLen], enc)
		pos += byteLen
		interned := buf[pos] != 0
		pos++
		return StrConst{Value: value, Encoding: enc, IsInterned: interned}, pos, nil

	case objTable:
		pos := 2
		if len(buf) < pos+4 {
			return nil, 0, fmt.Errorf("bytecode: truncated table constant")
		}
		entryCount := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4

		entries := make([]Const, 0, entryCount*2)
		for i := 0; i < entryCount*2; i++ {
			c, n, err := Decode(buf[pos:])
			if err != nil {
				return nil, 0, err
			}
			entries = append(entries, c)
			pos += n
		}
		return TableConst{Entries: entries}, pos, nil
	}

	return nil, 0, fmt.Errorf("bytecode: unknown object tag 0x%02x", buf[1])
}

func decodeString(b []byte, enc StrEncoding) string {
	switch enc {
	case Utf16:
		units := make([]uint16, len(b)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		return string(utf16.Decode(units))
	case Utf32:
		runes := make([]rune, len(b)/4)
		for i := range runes {
			runes[i] = rune(binary.LittleEndian.Uint32(b[i*4:]))
		}
		return string(runes)
	default:
		return string(b)
	}
}

func (t TableConst) String() string {
	if len(t.Entries) == 0 {
		return "[:]"
	}

	var parts []string
	for i := 0; i < len(t.Entries); i += 2 {
		k, v := t.Entries[i], t.Entries[i+1]
		ks, vs := k.String(), v.String()
		if _, ok := k.(StrConst); ok {
			ks = fmt.Sprintf("%q", ks)
		}
		if _, ok := v.(StrConst); ok {
			vs = fmt.Sprintf("%q", vs)
		}
		parts = append(parts, ks+": "+vs)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
