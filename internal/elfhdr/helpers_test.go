package elfhdr

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// identBytes returns a valid 32-bit little-endian System V ident
func identBytes() [IdentSize]byte {
	return [IdentSize]byte{
		0x7f, 0x45, 0x4c, 0x46, // ELF magic
		0x01,                                     // 32-bit
		0x01,                                     // Little endian
		0x01,                                     // ELF version
		0x00,                                     // System V ABI
		0x00,                                     // ABI version
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Padding
	}
}

// littleHeader is a 32-bit little-endian i386 executable header
var littleHeader = [Header32Size]byte{
	0x7f, 0x45, 0x4c, 0x46, 0x01, 0x01, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, // Executable file
	0x03, 0x00, // x86
	0x01, 0x00, 0x00, 0x00, // Version
	0x54, 0x80, 0x04, 0x08, // Entry point
	0x34, 0x00, 0x00, 0x00, // Program header offset
	0x10, 0x11, 0x00, 0x00, // Section header offset
	0x00, 0x00, 0x00, 0x05, // Flags
	0x34, 0x00, // ELF header size
	0x20, 0x00, // Program header size
	0x09, 0x00, // Program header count
	0x28, 0x00, // Section header size
	0x1d, 0x00, // Section header count
	0x1c, 0x00, // String table index
	0x00, 0x00, // Trailing bytes
}

// bigHeader is littleHeader with every multi-byte field swapped and EI_DATA set to big endian
var bigHeader = [Header32Size]byte{
	0x7f, 0x45, 0x4c, 0x46, 0x01, 0x02, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x02,
	0x00, 0x03,
	0x00, 0x00, 0x00, 0x01,
	0x08, 0x04, 0x80, 0x54,
	0x00, 0x00, 0x00, 0x34,
	0x00, 0x00, 0x11, 0x10,
	0x05, 0x00, 0x00, 0x00,
	0x00, 0x34,
	0x00, 0x20,
	0x00, 0x09,
	0x00, 0x28,
	0x00, 0x1d,
	0x00, 0x1c,
	0x00, 0x00,
}

var errBroken = errors.New("broken source")

// brokenSource fails every seek
type brokenSource struct{}

func (brokenSource) Read(p []byte) (int, error) { return 0, errBroken }

func (brokenSource) Seek(offset int64, whence int) (int64, error) { return 0, errBroken }

// failingReader seeks fine but fails every read
type failingReader struct{ io.ReadSeeker }

func (failingReader) Read(p []byte) (int, error) { return 0, errBroken }

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.elf")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
