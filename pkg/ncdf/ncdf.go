// Package ncdf writes netCDF classic (CDF-1) files. It covers the small
// subset of the format sweep mappings need: fixed-size dimensions, double and
// character variables, no attributes, no record dimension. Output is readable
// by any netCDF consumer.
package ncdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	tagDimension = 0x0a
	tagVariable  = 0x0b

	// TypeChar and TypeDouble are the external nc_type codes this writer
	// emits.
	TypeChar   = 2
	TypeDouble = 6
)

type dim struct {
	name   string
	length int
}

type variable struct {
	name    string
	typ     int32
	dims    []int
	chars   []byte
	doubles []float64
}

func (v *variable) size() int {
	if v.typ == TypeChar {
		return len(v.chars)
	}
	return 8 * len(v.doubles)
}

// File accumulates dimensions and variables and serializes them as one
// classic-format file.
type File struct {
	dims []dim
	vars []variable
}

// NewFile returns an empty file.
func NewFile() *File {
	return &File{}
}

// AddDim declares a fixed dimension and returns its ID for use in variable
// shapes.
func (f *File) AddDim(name string, length int) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("ncdf: dimension with empty name")
	}
	if length <= 0 {
		return 0, fmt.Errorf("ncdf: dimension %s has non-positive length %d", name, length)
	}
	for _, d := range f.dims {
		if d.name == name {
			return 0, fmt.Errorf("ncdf: duplicate dimension %s", name)
		}
	}
	f.dims = append(f.dims, dim{name: name, length: length})
	return len(f.dims) - 1, nil
}

// AddDouble declares a double variable over dims holding data in row-major
// order, last dimension fastest.
func (f *File) AddDouble(name string, dims []int, data []float64) error {
	return f.addVar(variable{name: name, typ: TypeDouble, dims: dims, doubles: data}, len(data))
}

// AddChar declares a character variable over dims. The final dimension is
// conventionally a string-length dimension; data holds the NUL-padded rows.
func (f *File) AddChar(name string, dims []int, data []byte) error {
	return f.addVar(variable{name: name, typ: TypeChar, dims: dims, chars: data}, len(data))
}

func (f *File) addVar(v variable, count int) error {
	if v.name == "" {
		return fmt.Errorf("ncdf: variable with empty name")
	}
	for _, existing := range f.vars {
		if existing.name == v.name {
			return fmt.Errorf("ncdf: duplicate variable %s", v.name)
		}
	}
	want := 1
	for _, id := range v.dims {
		if id < 0 || id >= len(f.dims) {
			return fmt.Errorf("ncdf: variable %s references unknown dimension %d", v.name, id)
		}
		want *= f.dims[id].length
	}
	if count != want {
		return fmt.Errorf("ncdf: variable %s has %d values, shape wants %d", v.name, count, want)
	}
	f.vars = append(f.vars, v)
	return nil
}

// Bytes serializes the file.
func (f *File) Bytes() ([]byte, error) {
	header := f.encode(make([]int32, len(f.vars)))
	offset := len(header)
	begins := make([]int32, len(f.vars))
	for i := range f.vars {
		begins[i] = int32(offset)
		offset += pad4(f.vars[i].size())
		if offset > math.MaxInt32 {
			return nil, fmt.Errorf("ncdf: file exceeds the classic format offset limit")
		}
	}

	buf := bytes.NewBuffer(f.encode(begins))
	scratch := make([]byte, 8)
	for i := range f.vars {
		v := &f.vars[i]
		if v.typ == TypeChar {
			buf.Write(v.chars)
		} else {
			for _, d := range v.doubles {
				binary.BigEndian.PutUint64(scratch, math.Float64bits(d))
				buf.Write(scratch)
			}
		}
		for p := v.size(); p < pad4(v.size()); p++ {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes(), nil
}

// encode writes the header with the given begin offsets. The header length
// is independent of the offset values, so Bytes measures with zeros first.
func (f *File) encode(begins []int32) []byte {
	var buf bytes.Buffer
	buf.WriteString("CDF\x01")
	writeInt32(&buf, 0) // numrecs

	if len(f.dims) == 0 {
		writeInt32(&buf, 0)
		writeInt32(&buf, 0)
	} else {
		writeInt32(&buf, tagDimension)
		writeInt32(&buf, int32(len(f.dims)))
		for _, d := range f.dims {
			writeName(&buf, d.name)
			writeInt32(&buf, int32(d.length))
		}
	}

	// no global attributes
	writeInt32(&buf, 0)
	writeInt32(&buf, 0)

	if len(f.vars) == 0 {
		writeInt32(&buf, 0)
		writeInt32(&buf, 0)
		return buf.Bytes()
	}
	writeInt32(&buf, tagVariable)
	writeInt32(&buf, int32(len(f.vars)))
	for i := range f.vars {
		v := &f.vars[i]
		writeName(&buf, v.name)
		writeInt32(&buf, int32(len(v.dims)))
		for _, id := range v.dims {
			writeInt32(&buf, int32(id))
		}
		// no variable attributes
		writeInt32(&buf, 0)
		writeInt32(&buf, 0)
		writeInt32(&buf, v.typ)
		writeInt32(&buf, int32(pad4(v.size())))
		writeInt32(&buf, begins[i])
	}
	return buf.Bytes()
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeName(buf *bytes.Buffer, name string) {
	writeInt32(buf, int32(len(name)))
	buf.WriteString(name)
	for p := len(name); p%4 != 0; p++ {
		buf.WriteByte(0)
	}
}

func pad4(n int) int {
	return (n + 3) &^ 3
}
