package elfhdr

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// IdentSize is the size of the ELF identification block (EI_NIDENT)
const IdentSize = 16

// Magic is the ELF signature stored in EI_MAG0..EI_MAG3
var Magic = [4]byte{0x7f, 'E', 'L', 'F'}

// Class is the EI_CLASS byte
type Class uint8

const (
	ClassNone Class = 0x00
	Class32   Class = 0x01
	Class64   Class = 0x02
)

// Known reports whether the class is one of the two defined widths
func (c Class) Known() bool {
	return c == Class32 || c == Class64
}

func (c Class) String() string {
	switch c {
	case Class32:
		return "32 bits"
	case Class64:
		return "64 bits"
	default:
		return "unknown"
	}
}

// DataEncoding is the EI_DATA byte
type DataEncoding uint8

const (
	DataNone   DataEncoding = 0x00
	DataLittle DataEncoding = 0x01
	DataBig    DataEncoding = 0x02
)

// Known reports whether the encoding is little or big endian
func (d DataEncoding) Known() bool {
	return d == DataLittle || d == DataBig
}

func (d DataEncoding) String() string {
	switch d {
	case DataLittle:
		return "little endian"
	case DataBig:
		return "big endian"
	default:
		return "unknown"
	}
}

// ByteOrder returns the byte order for the encoding, or nil when unknown
func (d DataEncoding) ByteOrder() binary.ByteOrder {
	switch d {
	case DataLittle:
		return binary.LittleEndian
	case DataBig:
		return binary.BigEndian
	default:
		return nil
	}
}

// OSABI is the EI_OSABI byte
type OSABI uint8

const (
	OSABISystemV       OSABI = 0x00
	OSABIHPUX          OSABI = 0x01
	OSABINetBSD        OSABI = 0x02
	OSABILinux         OSABI = 0x03
	OSABIGNUHurd       OSABI = 0x04
	OSABISolaris       OSABI = 0x06
	OSABIAIX           OSABI = 0x07
	OSABIIRIX          OSABI = 0x08
	OSABIFreeBSD       OSABI = 0x09
	OSABITru64         OSABI = 0x0a
	OSABINovellModesto OSABI = 0x0b
	OSABIOpenBSD       OSABI = 0x0c
	OSABIOpenVMS       OSABI = 0x0d
	OSABINonStopKernel OSABI = 0x0e
	OSABIAROS          OSABI = 0x0f
	OSABIFenixOS       OSABI = 0x10
	OSABICloudABI      OSABI = 0x11
)

// 0x05 is left out on purpose, it is not assigned.
var osabiNames = map[OSABI]string{
	OSABISystemV:       "System V",
	OSABIHPUX:          "HP-UX",
	OSABINetBSD:        "NetBSD",
	OSABILinux:         "Linux",
	OSABIGNUHurd:       "GNU Hurd",
	OSABISolaris:       "Solaris",
	OSABIAIX:           "AIX",
	OSABIIRIX:          "IRIX",
	OSABIFreeBSD:       "FreeBSD",
	OSABITru64:         "Tru64",
	OSABINovellModesto: "Novell Modesto",
	OSABIOpenBSD:       "OpenBSD",
	OSABIOpenVMS:       "OpenVMS",
	OSABINonStopKernel: "NonStop Kernel",
	OSABIAROS:          "AROS",
	OSABIFenixOS:       "Fenix OS",
	OSABICloudABI:      "CloudABI",
}

// Known reports whether the OS/ABI code is in the known set
func (o OSABI) Known() bool {
	_, ok := osabiNames[o]
	return ok
}

func (o OSABI) String() string {
	if name, ok := osabiNames[o]; ok {
		return name
	}
	return "unknown"
}

// KnownOSABIs returns every known OS/ABI code in ascending order
func KnownOSABIs() []OSABI {
	out := make([]OSABI, 0, len(osabiNames))
	for code := OSABISystemV; code <= OSABICloudABI; code++ {
		if code.Known() {
			out = append(out, code)
		}
	}
	return out
}

// Ident is the 16-byte ELF identification block
type Ident struct {
	Magic      [4]byte      `json:"magic"`
	Class      Class        `json:"class"`
	Data       DataEncoding `json:"data"`
	Version    uint8        `json:"version"`
	OSABI      OSABI        `json:"osabi"`
	ABIVersion uint8        `json:"abi_version"`
	Padding    [7]byte      `json:"padding"`
}

// DecodeIdent maps the identification bytes onto an Ident without validating them
func DecodeIdent(b [IdentSize]byte) Ident {
	var id Ident
	copy(id.Magic[:], b[0:4])
	id.Class = Class(b[4])
	id.Data = DataEncoding(b[5])
	id.Version = b[6]
	id.OSABI = OSABI(b[7])
	id.ABIVersion = b[8]
	copy(id.Padding[:], b[9:16])
	return id
}

// Bytes encodes the ident back into its on-disk form
func (id Ident) Bytes() [IdentSize]byte {
	var b [IdentSize]byte
	copy(b[0:4], id.Magic[:])
	b[4] = uint8(id.Class)
	b[5] = uint8(id.Data)
	b[6] = id.Version
	b[7] = uint8(id.OSABI)
	b[8] = id.ABIVersion
	copy(b[9:16], id.Padding[:])
	return b
}

// Problems returns every structural problem with the ident, or nil if there are none
func (id Ident) Problems() error {
	var result *multierror.Error

	if id.Magic != Magic {
		result = multierror.Append(result, fmt.Errorf("bad magic % x", id.Magic[:]))
	}
	if !id.Class.Known() {
		result = multierror.Append(result, fmt.Errorf("unknown class 0x%02x", uint8(id.Class)))
	}
	if !id.Data.Known() {
		result = multierror.Append(result, fmt.Errorf("unknown data encoding 0x%02x", uint8(id.Data)))
	}
	if !id.OSABI.Known() {
		result = multierror.Append(result, fmt.Errorf("unknown OS/ABI 0x%02x", uint8(id.OSABI)))
	}

	return result.ErrorOrNil()
}

// Valid reports whether the magic, class, data encoding and OS/ABI are all recognised
func (id Ident) Valid() bool {
	return id.Problems() == nil
}

// ByteOrder returns the byte order declared by the ident, or nil when it is unknown
func (id Ident) ByteOrder() binary.ByteOrder {
	return id.Data.ByteOrder()
}

// String renders the ident as semicolon-separated "field: value" pairs
func (id Ident) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "ei_mag: 0x%02x 0x%02x 0x%02x 0x%02x; ",
		id.Magic[0], id.Magic[1], id.Magic[2], id.Magic[3])
	fmt.Fprintf(&sb, "ei_class: 0x%02x %s; ", uint8(id.Class), id.Class)
	fmt.Fprintf(&sb, "ei_data: 0x%02x %s; ", uint8(id.Data), id.Data)
	fmt.Fprintf(&sb, "ei_version: 0x%02x; ", id.Version)
	fmt.Fprintf(&sb, "ei_osabi: 0x%02x %s; ", uint8(id.OSABI), id.OSABI)
	fmt.Fprintf(&sb, "ei_abiversion: 0x%02x", id.ABIVersion)

	return sb.String()
}

// ReadIdent reads and validates the identification block at the start of src.
// The source is always rewound to offset 0 first; on success it is left at offset 16.
func ReadIdent(src io.ReadSeeker) (Ident, error) {
	s := asSource(src)
	s.mu.Lock()
	defer s.mu.Unlock()

	return readIdentLocked(s.rs)
}

func readIdentLocked(rs io.ReadSeeker) (Ident, error) {
	var buf [IdentSize]byte
	if err := readAt0(rs, buf[:]); err != nil {
		return Ident{}, newDecodeError("read ident", ErrReadFailure, err)
	}

	id := DecodeIdent(buf)
	if err := id.Problems(); err != nil {
		return Ident{}, newDecodeError("read ident", ErrStructuralInvalid, err)
	}

	return id, nil
}

// readAt0 seeks to the start of rs and fills buf completely
func readAt0(rs io.ReadSeeker, buf []byte) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}
	if _, err := io.ReadFull(rs, buf); err != nil {
		return fmt.Errorf("read %d bytes: %w", len(buf), err)
	}
	return nil
}
