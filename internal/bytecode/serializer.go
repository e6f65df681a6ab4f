package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/minilang/internal/errors"
	"github.com/cwbudde/minilang/internal/value"
)

// magic identifies a minilang bytecode image
const magic uint32 = 0x4d69686f

const (
	tagInteger byte = 0x03
	tagDouble  byte = 0x06
	tagString  byte = 0x08
)

// Serialize encodes obj into the big-endian binary image format: a magic
// number, a typed constant pool, then a function pool of argc/code
// entries.
func Serialize(obj *CodeObject) ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, magic); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(obj.Constants))); err != nil {
		return nil, err
	}
	for _, c := range obj.Constants {
		switch c.Type {
		case value.Int:
			buf.WriteByte(tagInteger)
			binary.Write(&buf, binary.BigEndian, c.Int)
		case value.Float:
			buf.WriteByte(tagDouble)
			binary.Write(&buf, binary.BigEndian, c.Float)
		case value.String:
			buf.WriteByte(tagString)
			buf.WriteString(c.Str)
			buf.WriteByte(0)
		default:
			return nil, fmt.Errorf("cannot serialize constant of type %s", c.Type)
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(obj.Functions))); err != nil {
		return nil, err
	}
	for _, fn := range obj.Functions {
		binary.Write(&buf, binary.BigEndian, uint16(fn.ArgCount))
		binary.Write(&buf, binary.BigEndian, uint16(len(fn.Code)))
		buf.Write(fn.Code)
	}

	return buf.Bytes(), nil
}

// invalidBytecode reports a structurally malformed image: bad magic,
// truncation, or an unrecognized tag byte.
func invalidBytecode(format string, args ...any) error {
	return errors.NewUnpositioned(errors.InvalidBytecodeError, fmt.Sprintf(format, args...))
}

// Deserialize decodes a binary image previously produced by Serialize. Any
// structural malformation is reported as an *errors.Diagnostic with Kind
// InvalidBytecodeError.
func Deserialize(data []byte) (*CodeObject, error) {
	r := bytes.NewReader(data)

	var gotMagic uint32
	if err := binary.Read(r, binary.BigEndian, &gotMagic); err != nil {
		return nil, invalidBytecode("truncated image: %v", err)
	}
	if gotMagic != magic {
		return nil, invalidBytecode("bad magic number: got 0x%08x, want 0x%08x", gotMagic, magic)
	}

	var constCount uint16
	if err := binary.Read(r, binary.BigEndian, &constCount); err != nil {
		return nil, invalidBytecode("truncated constant pool header: %v", err)
	}
	constants := make([]value.Value, constCount)
	for i := range constants {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, invalidBytecode("truncated constant pool: %v", err)
		}
		switch tag {
		case tagInteger:
			var n int64
			if err := binary.Read(r, binary.BigEndian, &n); err != nil {
				return nil, invalidBytecode("truncated integer constant: %v", err)
			}
			constants[i] = value.IntValue(n)
		case tagDouble:
			var f float64
			if err := binary.Read(r, binary.BigEndian, &f); err != nil {
				return nil, invalidBytecode("truncated double constant: %v", err)
			}
			constants[i] = value.FloatValue(f)
		case tagString:
			s, err := readCString(r)
			if err != nil {
				return nil, err
			}
			constants[i] = value.StringValue(s)
		default:
			return nil, invalidBytecode("unknown constant pool tag 0x%02x", tag)
		}
	}

	var funcCount uint16
	if err := binary.Read(r, binary.BigEndian, &funcCount); err != nil {
		return nil, invalidBytecode("truncated function pool header: %v", err)
	}
	functions := make([]FuncEntry, funcCount)
	for i := range functions {
		var argc, codeLen uint16
		if err := binary.Read(r, binary.BigEndian, &argc); err != nil {
			return nil, invalidBytecode("truncated function entry %d: %v", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &codeLen); err != nil {
			return nil, invalidBytecode("truncated function entry %d: %v", i, err)
		}
		code := make([]byte, codeLen)
		if n, _ := r.Read(code); n != int(codeLen) {
			return nil, invalidBytecode("truncated code for function entry %d: got %d of %d bytes", i, n, codeLen)
		}
		functions[i] = FuncEntry{ArgCount: int(argc), Code: code}
	}

	return &CodeObject{Constants: constants, Functions: functions}, nil
}

func readCString(r *bytes.Reader) (string, error) {
	var sb bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", invalidBytecode("unterminated string constant: %v", err)
		}
		if b == 0 {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}
