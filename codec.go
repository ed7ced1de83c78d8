package qtmatrix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Data vectors are stored as flat big-endian buffers: 8 bytes per double or
// long, 4 per int, 1 per boolean, 2 per char (UTF-16 code unit) and
// NUL-terminated UTF-8 for strings.

const stringTerminator = 0x00

// Decode converts a byte buffer into a typed slice according to rep.
func Decode(data []byte, rep Representation) (interface{}, error) {
	switch rep {
	case RepresentationDouble:
		return DecodeDoubles(data)
	case RepresentationInt:
		return DecodeInts(data)
	case RepresentationLong:
		return DecodeLongs(data)
	case RepresentationBoolean:
		return DecodeBools(data), nil
	case RepresentationString:
		return DecodeStrings(data), nil
	case RepresentationChar:
		return DecodeChars(data)
	}
	return nil, NewError(KindUnsupportedRepresentation, "Decode", fmt.Errorf("cannot decode %s", rep))
}

// Encode is the inverse of Decode. The representation is inferred from the
// slice type.
func Encode(values interface{}) ([]byte, Representation, error) {
	switch v := values.(type) {
	case []float64:
		return EncodeDoubles(v), RepresentationDouble, nil
	case []int:
		return EncodeInts(v), RepresentationInt, nil
	case []int64:
		return EncodeLongs(v), RepresentationLong, nil
	case []bool:
		return EncodeBools(v), RepresentationBoolean, nil
	case []string:
		return EncodeStrings(v), RepresentationString, nil
	}
	return nil, RepresentationInvalid, NewError(KindUnsupportedRepresentation, "Encode", fmt.Errorf("cannot encode %T", values))
}

func DecodeDoubles(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, NewError(KindInvalidInput, "DecodeDoubles", fmt.Errorf("buffer of %d bytes is not a multiple of 8", len(data)))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

func EncodeDoubles(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func DecodeInts(data []byte) ([]int, error) {
	if len(data)%4 != 0 {
		return nil, NewError(KindInvalidInput, "DecodeInts", fmt.Errorf("buffer of %d bytes is not a multiple of 4", len(data)))
	}
	out := make([]int, len(data)/4)
	for i := range out {
		out[i] = int(int32(binary.BigEndian.Uint32(data[i*4:])))
	}
	return out, nil
}

func EncodeInts(values []int) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(out[i*4:], uint32(int32(v)))
	}
	return out
}

func DecodeLongs(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, NewError(KindInvalidInput, "DecodeLongs", fmt.Errorf("buffer of %d bytes is not a multiple of 8", len(data)))
	}
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.BigEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

func EncodeLongs(values []int64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[i*8:], uint64(v))
	}
	return out
}

func DecodeBools(data []byte) []bool {
	out := make([]bool, len(data))
	for i, b := range data {
		out[i] = b != 0
	}
	return out
}

func EncodeBools(values []bool) []byte {
	out := make([]byte, len(values))
	for i, v := range values {
		if v {
			out[i] = 1
		}
	}
	return out
}

func DecodeStrings(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	parts := bytes.Split(bytes.TrimSuffix(data, []byte{stringTerminator}), []byte{stringTerminator})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

func EncodeStrings(values []string) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		buf.WriteString(v)
		buf.WriteByte(stringTerminator)
	}
	return buf.Bytes()
}

// DecodeChars decodes 2-byte code units, one character per value. A zero
// unit is the empty string written by EncodeChars.
func DecodeChars(data []byte) ([]string, error) {
	if len(data)%2 != 0 {
		return nil, NewError(KindInvalidInput, "DecodeChars", fmt.Errorf("buffer of %d bytes is not a multiple of 2", len(data)))
	}
	out := make([]string, len(data)/2)
	for i := range out {
		if u := binary.BigEndian.Uint16(data[i*2:]); u != 0 {
			out[i] = string(rune(u))
		}
	}
	return out, nil
}

// DecodeAsDoubles decodes any scalar representation into float64 values.
// Booleans map to 1/0 and strings that do not parse map to NaN.
func DecodeAsDoubles(data []byte, rep Representation) ([]float64, error) {
	switch rep {
	case RepresentationDouble:
		return DecodeDoubles(data)
	case RepresentationInt:
		ints, err := DecodeInts(data)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out, nil
	case RepresentationLong:
		longs, err := DecodeLongs(data)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(longs))
		for i, v := range longs {
			out[i] = float64(v)
		}
		return out, nil
	case RepresentationBoolean:
		bools := DecodeBools(data)
		out := make([]float64, len(bools))
		for i, v := range bools {
			if v {
				out[i] = 1
			}
		}
		return out, nil
	case RepresentationString:
		strs := DecodeStrings(data)
		out := make([]float64, len(strs))
		for i, s := range strs {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				f = math.NaN()
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, NewError(KindUnsupportedRepresentation, "DecodeAsDoubles", fmt.Errorf("cannot convert %s to doubles", rep))
}

// DecodedLen returns the number of values stored in data.
func DecodedLen(data []byte, rep Representation) (int, error) {
	switch rep {
	case RepresentationDouble, RepresentationLong:
		return len(data) / 8, nil
	case RepresentationInt:
		return len(data) / 4, nil
	case RepresentationBoolean:
		return len(data), nil
	case RepresentationChar:
		return len(data) / 2, nil
	case RepresentationString:
		return len(DecodeStrings(data)), nil
	}
	return 0, NewError(KindUnsupportedRepresentation, "DecodedLen", fmt.Errorf("cannot size %s", rep))
}

// CountMissing counts NaN doubles and empty strings or chars. Integer, long
// and boolean data have no missing-value encoding and always count zero.
func CountMissing(data []byte, rep Representation) (int, error) {
	switch rep {
	case RepresentationDouble:
		vals, err := DecodeDoubles(data)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, v := range vals {
			if math.IsNaN(v) {
				n++
			}
		}
		return n, nil
	case RepresentationString:
		n := 0
		for _, s := range DecodeStrings(data) {
			if s == "" {
				n++
			}
		}
		return n, nil
	case RepresentationChar:
		chars, err := DecodeChars(data)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, s := range chars {
			if s == "" {
				n++
			}
		}
		return n, nil
	case RepresentationInt, RepresentationLong, RepresentationBoolean:
		return 0, nil
	}
	return 0, NewError(KindUnsupportedRepresentation, "CountMissing", fmt.Errorf("cannot inspect %s", rep))
}

// DefaultValue is the fill used when an observation is genuinely absent:
// NaN for doubles, empty string for strings/chars, zero for ints and longs,
// false for booleans.
func DefaultValue(rep Representation) (interface{}, error) {
	switch rep {
	case RepresentationDouble:
		return math.NaN(), nil
	case RepresentationInt:
		return 0, nil
	case RepresentationLong:
		return int64(0), nil
	case RepresentationBoolean:
		return false, nil
	case RepresentationString, RepresentationChar:
		return "", nil
	}
	return nil, NewError(KindUnsupportedRepresentation, "DefaultValue", fmt.Errorf("no default for %s", rep))
}

// EncodeChars stores the first rune of every value as a 2-byte code unit.
func EncodeChars(values []string) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		var r rune
		for _, c := range v {
			r = c
			break
		}
		binary.BigEndian.PutUint16(out[i*2:], uint16(r))
	}
	return out
}

// EncodeAs encodes values for an explicit representation. It differs from
// Encode only for chars, which share the []string slice type with strings.
func EncodeAs(values interface{}, rep Representation) ([]byte, error) {
	if rep == RepresentationChar {
		v, ok := values.([]string)
		if !ok {
			return nil, NewError(KindUnsupportedRepresentation, "EncodeAs", fmt.Errorf("chars must be []string, got %T", values))
		}
		return EncodeChars(v), nil
	}
	data, got, err := Encode(values)
	if err != nil {
		return nil, err
	}
	if got != rep {
		return nil, NewError(KindUnsupportedRepresentation, "EncodeAs", fmt.Errorf("%T encodes as %s, not %s", values, got, rep))
	}
	return data, nil
}
