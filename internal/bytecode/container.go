package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Magic is the four-byte tag every nevec bytecode container begins
// with. Unlike every other multi-byte field in the container, it is
// written and read big-endian so the on-disk bytes are the literal
// sequence BA DB ED 00.
const Magic uint32 = 0xBADBED00

// SectionSep separates the constant pool, debug table, and code
// sections.
const SectionSep = 0x1C

// trailingPadLen is the fixed-length 0xFF footer every container ends
// with, letting a reader detect truncation.
const trailingPadLen = 16

// DebugEntry is one (code offset, source line) pair in the compressed
// debug line table: one entry per line change, not per instruction.
type DebugEntry struct {
	Offset uint32
	Line   uint32
}

// Container is a fully parsed bytecode artifact, the inverse of
// emit.Artifact.Container.
type Container struct {
	SourcePath string
	Consts     []Const
	Debug      []DebugEntry
	Code       []byte
}

// DecodeContainer parses a container back into its constant pool,
// debug table, and code. It requires at least 16 bytes after the second
// section separator and treats the last 16 as the trailing padding
// without checking their value; every byte before them is taken as code.
func DecodeContainer(buf []byte) (*Container, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("bytecode: truncated container header")
	}
	if got := binary.BigEndian.Uint32(buf[:4]); got != Magic {
		return nil, fmt.Errorf("bytecode: bad magic number 0x%08x", got)
	}
	pos := 4

	// The pool carries no count prefix: each Const is self-delimiting,
	// so decoding stops as soon as the section separator is reached.
	var consts []Const
	for pos < len(buf) && buf[pos] != SectionSep {
		c, n, err := Decode(buf[pos:])
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", len(consts), err)
		}
		consts = append(consts, c)
		pos += n
	}

	pos, err := expectSep(buf, pos)
	if err != nil {
		return nil, err
	}

	debugLen, pos, err := readUint16(buf, pos)
	if err != nil {
		return nil, err
	}
	if len(buf) < pos+int(debugLen) {
		return nil, fmt.Errorf("bytecode: truncated debug section at offset %d", pos)
	}
	debugBytes := buf[pos : pos+int(debugLen)]
	pos += int(debugLen)

	sourcePath, debugBytes, err := readPath(debugBytes)
	if err != nil {
		return nil, err
	}

	var debug []DebugEntry
	dp := 0
	for dp < len(debugBytes) {
		var offset, line uint32
		offset, dp, err = readUint32(debugBytes, dp)
		if err != nil {
			return nil, err
		}
		line, dp, err = readUint32(debugBytes, dp)
		if err != nil {
			return nil, err
		}
		debug = append(debug, DebugEntry{Offset: offset, Line: line})
	}

	pos, err = expectSep(buf, pos)
	if err != nil {
		return nil, err
	}

	if len(buf) < pos+trailingPadLen {
		return nil, fmt.Errorf("bytecode: container missing trailing padding")
	}

	code := buf[pos : len(buf)-trailingPadLen]
	return &Container{SourcePath: sourcePath, Consts: consts, Debug: debug, Code: code}, nil
}

func readUint32(buf []byte, pos int) (uint32, int, error) {
	if len(buf) < pos+4 {
		return 0, 0, fmt.Errorf("bytecode: truncated container at offset %d", pos)
	}
	return binary.LittleEndian.Uint32(buf[pos : pos+4]), pos + 4, nil
}

func readUint16(buf []byte, pos int) (uint16, int, error) {
	if len(buf) < pos+2 {
		return 0, 0, fmt.Errorf("bytecode: truncated container at offset %d", pos)
	}
	return binary.LittleEndian.Uint16(buf[pos : pos+2]), pos + 2, nil
}

// readPath splits the path-length-prefixed source path off the front
// of the debug section and returns it along with the remaining
// (offset, line) pair bytes.
func readPath(debugBytes []byte) (string, []byte, error) {
	pathLen, pos, err := readUint16(debugBytes, 0)
	if err != nil {
		return "", nil, err
	}
	if len(debugBytes) < pos+int(pathLen) {
		return "", nil, fmt.Errorf("bytecode: truncated source path in debug section")
	}
	path := string(debugBytes[pos : pos+int(pathLen)])
	return path, debugBytes[pos+int(pathLen):], nil
}

func expectSep(buf []byte, pos int) (int, error) {
	if len(buf) <= pos || buf[pos] != SectionSep {
		return 0, fmt.Errorf("bytecode: expected section separator at offset %d", pos)
	}
	return pos + 1, nil
}

// Disassemble walks c.Code and returns one Instr per instruction.
func (c *Container) Disassemble() ([]Instr, error) {
	var out []Instr
	pos := 0
	for pos < len(c.Code) {
		op := Opcode(c.Code[pos])
		n := op.NumOperands()
		if n == 0 {
			return nil, fmt.Errorf("bytecode: unknown opcode 0x%02x at offset %d", c.Code[pos], pos)
		}
		operandBytes := n
		if pos+1+operandBytes > len(c.Code) {
			return nil, fmt.Errorf("bytecode: truncated instruction at offset %d", pos)
		}
		operands := append([]byte(nil), c.Code[pos+1:pos+1+operandBytes]...)
		out = append(out, Instr{Op: op, Operands: operands})
		pos += 1 + operandBytes
	}
	return out, nil
}

// LineFor returns the source line the debug table attributes to the
// instruction at code offset.
func (c *Container) LineFor(offset uint32) uint32 {
	line := uint32(0)
	for _, d := range c.Debug {
		if d.Offset > offset {
			break
		}
		line = d.Line
	}
	return line
}
