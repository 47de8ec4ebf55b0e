package elfhdr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIdent(t *testing.T) {
	b := [IdentSize]byte{
		0x7f, 0x45, 0x4c, 0x46,
		0x02, 0x02, 0x01, 0x03, 0x07,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	}

	id := DecodeIdent(b)

	assert.Equal(t, Magic, id.Magic)
	assert.Equal(t, Class64, id.Class)
	assert.Equal(t, DataBig, id.Data)
	assert.Equal(t, uint8(0x01), id.Version)
	assert.Equal(t, OSABILinux, id.OSABI)
	assert.Equal(t, uint8(0x07), id.ABIVersion)
	assert.Equal(t, [7]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}, id.Padding)
	assert.Equal(t, b, id.Bytes())
}

func TestIdent_ValidForKnownValues(t *testing.T) {
	for _, class := range []Class{Class32, Class64} {
		for _, data := range []DataEncoding{DataLittle, DataBig} {
			for _, osabi := range KnownOSABIs() {
				b := identBytes()
				b[4] = uint8(class)
				b[5] = uint8(data)
				b[7] = uint8(osabi)

				id := DecodeIdent(b)
				assert.True(t, id.Valid(), "class=%v data=%v osabi=%v", class, data, osabi)
				assert.NoError(t, id.Problems())
			}
		}
	}
}

func TestIdent_InvalidAfterSingleMutation(t *testing.T) {
	valid := map[int]func(v byte) bool{
		0: func(v byte) bool { return v == 0x7f },
		1: func(v byte) bool { return v == 'E' },
		2: func(v byte) bool { return v == 'L' },
		3: func(v byte) bool { return v == 'F' },
		4: func(v byte) bool { return Class(v).Known() },
		5: func(v byte) bool { return DataEncoding(v).Known() },
		7: func(v byte) bool { return OSABI(v).Known() },
	}

	for offset, isValid := range valid {
		for v := 0; v < 256; v++ {
			if isValid(byte(v)) {
				continue
			}
			b := identBytes()
			b[offset] = byte(v)
			assert.False(t, DecodeIdent(b).Valid(), "offset %d value 0x%02x", offset, v)
		}
	}
}

func TestIdent_UncheckedFields(t *testing.T) {
	b := identBytes()
	b[6] = 0xff // version
	b[8] = 0xff // ABI version
	for i := 9; i < IdentSize; i++ {
		b[i] = 0xaa
	}

	assert.True(t, DecodeIdent(b).Valid())
}

func TestOSABI_Known(t *testing.T) {
	tests := []struct {
		code  OSABI
		known bool
		label string
	}{
		{0x00, true, "System V"},
		{0x03, true, "Linux"},
		{0x04, true, "GNU Hurd"},
		{0x05, false, "unknown"},
		{0x06, true, "Solaris"},
		{0x0b, true, "Novell Modesto"},
		{0x11, true, "CloudABI"},
		{0x12, false, "unknown"},
		{0xff, false, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.known, tt.code.Known(), "code 0x%02x", uint8(tt.code))
		assert.Equal(t, tt.label, tt.code.String(), "code 0x%02x", uint8(tt.code))
	}

	assert.Len(t, KnownOSABIs(), 17)
}

func TestIdent_Problems(t *testing.T) {
	b := [IdentSize]byte{0x7e, 'E', 'L', 'F', 0x03, 0x00, 0x01, 0x05}

	err := DecodeIdent(b).Problems()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 4)
	assert.Contains(t, err.Error(), "bad magic")
	assert.Contains(t, err.Error(), "unknown class 0x03")
	assert.Contains(t, err.Error(), "unknown data encoding 0x00")
	assert.Contains(t, err.Error(), "unknown OS/ABI 0x05")
}

func TestIdent_String(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(b *[IdentSize]byte)
		expected string
	}{
		{
			name:     "32-bit little endian System V",
			mutate:   func(b *[IdentSize]byte) {},
			expected: "ei_mag: 0x7f 0x45 0x4c 0x46; ei_class: 0x01 32 bits; ei_data: 0x01 little endian; ei_version: 0x01; ei_osabi: 0x00 System V; ei_abiversion: 0x00",
		},
		{
			name: "64-bit big endian FreeBSD",
			mutate: func(b *[IdentSize]byte) {
				b[4], b[5], b[7], b[8] = 0x02, 0x02, 0x09, 0x01
			},
			expected: "ei_mag: 0x7f 0x45 0x4c 0x46; ei_class: 0x02 64 bits; ei_data: 0x02 big endian; ei_version: 0x01; ei_osabi: 0x09 FreeBSD; ei_abiversion: 0x01",
		},
		{
			name: "garbage",
			mutate: func(b *[IdentSize]byte) {
				*b = [IdentSize]byte{0, 1, 2, 3, 0xff, 0xee, 0xdd, 0x05, 0xbb}
			},
			expected: "ei_mag: 0x00 0x01 0x02 0x03; ei_class: 0xff unknown; ei_data: 0xee unknown; ei_version: 0xdd; ei_osabi: 0x05 unknown; ei_abiversion: 0xbb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := identBytes()
			tt.mutate(&b)
			assert.Equal(t, tt.expected, DecodeIdent(b).String())
		})
	}
}

func TestIdent_StringNeverFails(t *testing.T) {
	for v := 0; v < 256; v++ {
		var b [IdentSize]byte
		for i := range b {
			b[i] = byte(v + i*17)
		}
		id := DecodeIdent(b)
		assert.NotPanics(t, func() { _ = id.String() })
		assert.NotEmpty(t, id.String())
	}
}

func TestReadIdent(t *testing.T) {
	t.Run("valid ident", func(t *testing.T) {
		b := identBytes()
		r := bytes.NewReader(append(b[:], 0xaa, 0xbb))

		id, err := ReadIdent(r)
		require.NoError(t, err)
		assert.Equal(t, DecodeIdent(b), id)
		assert.Equal(t, "System V", id.OSABI.String())

		pos, err := r.Seek(0, io.SeekCurrent)
		require.NoError(t, err)
		assert.Equal(t, int64(IdentSize), pos)
	})

	t.Run("ignores prior cursor position", func(t *testing.T) {
		b := identBytes()
		r := bytes.NewReader(append(b[:], make([]byte, 32)...))
		_, err := r.Seek(20, io.SeekStart)
		require.NoError(t, err)

		id, err := ReadIdent(r)
		require.NoError(t, err)
		assert.Equal(t, Class32, id.Class)
	})

	t.Run("corrupted magic", func(t *testing.T) {
		b := identBytes()
		b[0] = 0x7e

		_, err := ReadIdent(bytes.NewReader(b[:]))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructuralInvalid)
		assert.NotErrorIs(t, err, ErrReadFailure)
	})

	t.Run("unknown OS/ABI", func(t *testing.T) {
		b := identBytes()
		b[7] = 0x05

		_, err := ReadIdent(bytes.NewReader(b[:]))
		assert.ErrorIs(t, err, ErrStructuralInvalid)
	})

	t.Run("short source", func(t *testing.T) {
		b := identBytes()
		for n := 0; n < IdentSize; n++ {
			_, err := ReadIdent(bytes.NewReader(b[:n]))
			assert.ErrorIs(t, err, ErrReadFailure, "length %d", n)
		}
	})

	t.Run("seek failure", func(t *testing.T) {
		_, err := ReadIdent(brokenSource{})
		assert.ErrorIs(t, err, ErrReadFailure)
		assert.ErrorIs(t, err, errBroken)
	})

	t.Run("read failure", func(t *testing.T) {
		b := identBytes()
		_, err := ReadIdent(failingReader{bytes.NewReader(b[:])})
		assert.ErrorIs(t, err, ErrReadFailure)
		assert.ErrorIs(t, err, errBroken)
	})

	t.Run("guarded source", func(t *testing.T) {
		b := identBytes()
		src := NewSource(bytes.NewReader(b[:]))

		id, err := ReadIdent(src)
		require.NoError(t, err)
		assert.True(t, id.Valid())
	})
}

func TestDecodeError(t *testing.T) {
	err := newDecodeError("read ident", ErrReadFailure, io.ErrUnexpectedEOF)

	assert.Equal(t, "read ident: read failure: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, ErrReadFailure)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	bare := newDecodeError("read header32", ErrUnsupportedClass, nil)
	assert.Equal(t, "read header32: unsupported class", bare.Error())
	assert.ErrorIs(t, bare, ErrUnsupportedClass)
}

func TestIdent_ByteOrder(t *testing.T) {
	tests := []struct {
		data DataEncoding
		want binary.ByteOrder
	}{
		{DataLittle, binary.LittleEndian},
		{DataBig, binary.BigEndian},
		{DataNone, nil},
		{DataEncoding(0x03), nil},
	}

	for _, tt := range tests {
		t.Run(tt.data.String(), func(t *testing.T) {
			id := Ident{Magic: Magic, Class: Class32, Data: tt.data}
			assert.Equal(t, tt.want, id.ByteOrder())
		})
	}
}
