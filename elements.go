package sigma

import (
	"encoding/binary"
	"math"
	"sort"
)

// NamedElements is the canonical encoding of a statement made of named public
// elements: entries sorted by name, each written as
// u16be(len(name)) || name || u32be(len(value)) || value.
type NamedElements map[string][]byte

// MarshalBinary implements Statement.
func (n NamedElements) MarshalBinary() ([]byte, error) {
	names := make([]string, 0, len(n))
	size := 0
	for name, v := range n {
		names = append(names, name)
		size += 2 + len(name) + 4 + len(v)
	}
	sort.Strings(names)

	out := make([]byte, 0, size)
	for _, name := range names {
		v := n[name]
		if len(name) > math.MaxUint16 || uint64(len(v)) > math.MaxUint32 {
			return nil, Errorf(KindSerialization, "element %.16q too large", name)
		}
		var hdr [4]byte
		binary.BigEndian.PutUint16(hdr[:2], uint16(len(name)))
		out = append(out, hdr[:2]...)
		out = append(out, name...)
		binary.BigEndian.PutUint32(hdr[:], uint32(len(v)))
		out = append(out, hdr[:]...)
		out = append(out, v...)
	}
	return out, nil
}

// UnmarshalNamedElements parses the output of NamedElements.MarshalBinary. It
// rejects truncated input, unsorted or duplicated names and trailing bytes.
func UnmarshalNamedElements(data []byte) (NamedElements, error) {
	n := NamedElements{}
	last := ""
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, Errorf(KindSerialization, "truncated element name length")
		}
		nl := int(binary.BigEndian.Uint16(data))
		data = data[2:]
		if len(data) < nl+4 {
			return nil, Errorf(KindSerialization, "truncated element name")
		}
		name := string(data[:nl])
		data = data[nl:]
		if len(n) > 0 && name <= last {
			return nil, Errorf(KindSerialization, "element %q out of order", name)
		}
		vl := binary.BigEndian.Uint32(data)
		data = data[4:]
		if uint64(len(data)) < uint64(vl) {
			return nil, Errorf(KindSerialization, "truncated element %q", name)
		}
		n[name] = append([]byte(nil), data[:vl]...)
		data = data[vl:]
		last = name
	}
	return n, nil
}
