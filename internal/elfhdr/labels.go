package elfhdr

import (
	"debug/elf"
	"fmt"
	"strings"
)

// TypeName resolves an e_type value to its ET_* name without the prefix.
// Unlisted values come back as raw hex with ok=false.
func TypeName(t uint16) (name string, ok bool) {
	switch {
	case t >= 0xfe00 && t <= 0xfeff:
		return fmt.Sprintf("os-specific (0x%04x)", t), true
	case t >= 0xff00:
		return fmt.Sprintf("processor-specific (0x%04x)", t), true
	}
	if n := elf.Type(t).String(); strings.HasPrefix(n, "ET_") {
		return strings.TrimPrefix(n, "ET_"), true
	}
	return fmt.Sprintf("0x%02x", t), false
}

// MachineName resolves an e_machine value to its EM_* name without the prefix.
// Unlisted values come back as raw hex with ok=false.
func MachineName(m uint16) (name string, ok bool) {
	if n := elf.Machine(m).String(); strings.HasPrefix(n, "EM_") {
		return strings.TrimPrefix(n, "EM_"), true
	}
	return fmt.Sprintf("0x%02x", m), false
}
