// Package samples builds the ELF header fixtures used by the CLI tests.
package samples

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/raven-betanet/elfhdr/internal/elfhdr"
)

// Sample is a named fixture and the exit code `elfhdr check` should produce for it
type Sample struct {
	Name      string
	Data      []byte
	CheckExit int
	Header    bool // header decodes successfully
}

func base() elfhdr.Header32 {
	return elfhdr.Header32{
		Ident: elfhdr.Ident{
			Magic:   elfhdr.Magic,
			Class:   elfhdr.Class32,
			Data:    elfhdr.DataLittle,
			Version: 1,
		},
		Type:      2,
		Machine:   0x03,
		Version:   1,
		Entry:     0x08048000,
		PhOff:     0x34,
		ShOff:     0x1000,
		EhSize:    0x34,
		PhEntSize: 0x20,
		PhNum:     2,
		ShEntSize: 0x28,
		ShNum:     8,
		ShStrNdx:  7,
	}
}

func encode(h elfhdr.Header32, tail int) []byte {
	b := h.Bytes()
	return append(b[:], make([]byte, tail)...)
}

// All returns every fixture
func All() []Sample {
	little := base()

	big := base()
	big.Ident.Data = elfhdr.DataBig
	big.Machine = 0x14
	big.Ident.OSABI = elfhdr.OSABILinux

	relocatable := base()
	relocatable.Type = 1
	relocatable.Entry = 0
	relocatable.PhOff = 0
	relocatable.PhNum = 0

	wide := base()
	wide.Ident.Class = elfhdr.Class64

	corrupted := encode(base(), 16)
	corrupted[0] = 0x7e

	reserved := encode(base(), 16)
	reserved[7] = 0x05

	return []Sample{
		{Name: "i386_exec_le", Data: encode(little, 64), Header: true},
		{Name: "ppc_exec_be", Data: encode(big, 64), Header: true},
		{Name: "i386_rel_le", Data: encode(relocatable, 0), Header: true},
		{Name: "x86_64_exec", Data: encode(wide, 64)},
		{Name: "corrupted_magic", Data: corrupted, CheckExit: 1},
		{Name: "reserved_osabi", Data: reserved, CheckExit: 1},
		{Name: "truncated", Data: encode(base(), 0)[:40], CheckExit: 1},
		{Name: "not_elf", Data: []byte("This is not a valid binary file - just plain text content for testing"), CheckExit: 1},
	}
}

// WriteAll writes every fixture into dir and returns the paths keyed by name
func WriteAll(dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := make(map[string]string)
	for _, s := range All() {
		path := filepath.Join(dir, s.Name)
		if err := os.WriteFile(path, s.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", s.Name, err)
		}
		paths[s.Name] = path
	}
	return paths, nil
}
