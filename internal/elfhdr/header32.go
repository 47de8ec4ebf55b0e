package elfhdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Header32Size is the number of leading bytes consumed by ReadHeader32
const Header32Size = 54

// header32End is the offset just past e_shstrndx
const header32End = 0x34

// Header32 is the 32-bit ELF file header including its identification block
type Header32 struct {
	Ident     Ident  `json:"ident"`     // 0x00
	Type      uint16 `json:"type"`      // 0x10
	Machine   uint16 `json:"machine"`   // 0x12
	Version   uint32 `json:"version"`   // 0x14
	Entry     uint32 `json:"entry"`     // 0x18
	PhOff     uint32 `json:"phoff"`     // 0x1c
	ShOff     uint32 `json:"shoff"`     // 0x20
	Flags     uint32 `json:"flags"`     // 0x24
	EhSize    uint16 `json:"ehsize"`    // 0x28
	PhEntSize uint16 `json:"phentsize"` // 0x2a
	PhNum     uint16 `json:"phnum"`     // 0x2c
	ShEntSize uint16 `json:"shentsize"` // 0x2e
	ShNum     uint16 `json:"shnum"`     // 0x30
	ShStrNdx  uint16 `json:"shstrndx"`  // 0x32
}

// elfHeader32 is the on-disk layout of bytes 0x10..0x34
type elfHeader32 struct {
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	PhOff     uint32
	ShOff     uint32
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

// DecodeHeader32 maps a 54-byte buffer onto a Header32.
// Multi-byte fields use the byte order from the ident. If the ident's data
// encoding is unknown, every field after the ident is left zero.
func DecodeHeader32(b [Header32Size]byte) Header32 {
	var identBuf [IdentSize]byte
	copy(identBuf[:], b[:IdentSize])

	h := Header32{Ident: DecodeIdent(identBuf)}

	order := h.Ident.ByteOrder()
	if order == nil {
		return h
	}

	var raw elfHeader32
	// The slice is exactly binary.Size(raw) bytes, so this cannot fail.
	if err := binary.Read(bytes.NewReader(b[IdentSize:header32End]), order, &raw); err != nil {
		return Header32{Ident: h.Ident}
	}

	h.Type = raw.Type
	h.Machine = raw.Machine
	h.Version = raw.Version
	h.Entry = raw.Entry
	h.PhOff = raw.PhOff
	h.ShOff = raw.ShOff
	h.Flags = raw.Flags
	h.EhSize = raw.EhSize
	h.PhEntSize = raw.PhEntSize
	h.PhNum = raw.PhNum
	h.ShEntSize = raw.ShEntSize
	h.ShNum = raw.ShNum
	h.ShStrNdx = raw.ShStrNdx

	return h
}

// Bytes encodes the header using the byte order of its ident.
// With an unknown data encoding only the ident bytes are written.
func (h Header32) Bytes() [Header32Size]byte {
	var b [Header32Size]byte

	ident := h.Ident.Bytes()
	copy(b[:IdentSize], ident[:])

	order := h.Ident.ByteOrder()
	if order == nil {
		return b
	}

	raw := elfHeader32{
		Type:      h.Type,
		Machine:   h.Machine,
		Version:   h.Version,
		Entry:     h.Entry,
		PhOff:     h.PhOff,
		ShOff:     h.ShOff,
		Flags:     h.Flags,
		EhSize:    h.EhSize,
		PhEntSize: h.PhEntSize,
		PhNum:     h.PhNum,
		ShEntSize: h.ShEntSize,
		ShNum:     h.ShNum,
		ShStrNdx:  h.ShStrNdx,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, order, &raw); err != nil {
		return b
	}
	copy(b[IdentSize:header32End], buf.Bytes())

	return b
}

// String renders the header fields in file order, numeric values as hex
func (h Header32) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "e_ident: {%s}; ", h.Ident)
	fmt.Fprintf(&sb, "e_type: 0x%02x; ", h.Type)
	fmt.Fprintf(&sb, "e_machine: 0x%02x; ", h.Machine)
	fmt.Fprintf(&sb, "e_version: 0x%02x; ", h.Version)
	fmt.Fprintf(&sb, "e_entry: 0x%02x; ", h.Entry)
	fmt.Fprintf(&sb, "e_phoff: 0x%02x; ", h.PhOff)
	fmt.Fprintf(&sb, "e_shoff: 0x%02x; ", h.ShOff)
	fmt.Fprintf(&sb, "e_flags: 0x%02x; ", h.Flags)
	fmt.Fprintf(&sb, "e_ehsize: 0x%02x; ", h.EhSize)
	fmt.Fprintf(&sb, "e_phentsize: 0x%02x; ", h.PhEntSize)
	fmt.Fprintf(&sb, "e_phnum: 0x%02x; ", h.PhNum)
	fmt.Fprintf(&sb, "e_shentsize: 0x%02x; ", h.ShEntSize)
	fmt.Fprintf(&sb, "e_shnum: 0x%02x; ", h.ShNum)
	fmt.Fprintf(&sb, "e_shstrndx: 0x%02x", h.ShStrNdx)

	return sb.String()
}

// ReadHeader32 validates the ident at the start of src, rejects anything that is not
// 32-bit, then rereads the first 54 bytes from offset 0 and decodes them.
func ReadHeader32(src io.ReadSeeker) (Header32, error) {
	s := asSource(src)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := readIdentLocked(s.rs)
	if err != nil {
		return Header32{}, err
	}

	if id.Class != Class32 {
		return Header32{}, newDecodeError("read header32", ErrUnsupportedClass,
			fmt.Errorf("class 0x%02x (%s)", uint8(id.Class), id.Class))
	}

	var buf [Header32Size]byte
	if err := readAt0(s.rs, buf[:]); err != nil {
		return Header32{}, newDecodeError("read header32", ErrReadFailure, err)
	}

	return DecodeHeader32(buf), nil
}
