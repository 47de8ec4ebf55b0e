package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/raven-betanet/elfhdr/internal/elfhdr"
	"github.com/raven-betanet/elfhdr/internal/utils"
)

// readRawIdent reads the first 16 bytes of the file without validating them,
// so each field check can report on its own field.
func readRawIdent(binaryPath string) (elfhdr.Ident, error) {
	f, err := elfhdr.Open(binaryPath)
	if err != nil {
		return elfhdr.Ident{}, err
	}
	defer f.Close()

	var buf [elfhdr.IdentSize]byte
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return elfhdr.Ident{}, fmt.Errorf("seek to start: %w", err)
	}
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return elfhdr.Ident{}, fmt.Errorf("read ident: %w", err)
	}

	return elfhdr.DecodeIdent(buf), nil
}

// checkLogger returns the context logger tagged with the check and file
func checkLogger(ctx context.Context, check HeaderCheck, binaryPath string) *logrus.Entry {
	return utils.LoggerFromContext(ctx).WithContext(map[string]interface{}{
		"component": "checks",
		"check":     check.ID(),
		"file":      binaryPath,
	})
}

// runIdentCheck reads the ident and applies a single field test to it
func runIdentCheck(ctx context.Context, check HeaderCheck, binaryPath string, test func(elfhdr.Ident, *CheckResult)) CheckResult {
	start := time.Now()
	log := checkLogger(ctx, check, binaryPath)

	result := CheckResult{
		ID:          check.ID(),
		Description: check.Description(),
		Metadata:    make(map[string]interface{}),
	}

	id, err := readRawIdent(binaryPath)
	if err != nil {
		result.Status = StatusError
		result.Details = fmt.Sprintf("Failed to read identification block: %v", err)
		result.Duration = time.Since(start)
		log.Debugf("%s: %s", result.Status, result.Details)
		return result
	}

	test(id, &result)

	result.Duration = time.Since(start)
	log.Debugf("%s: %s", result.Status, result.Details)
	return result
}

// MagicCheck verifies the four ELF signature bytes
type MagicCheck struct{}

func (c *MagicCheck) ID() string {
	return "ident-magic"
}

func (c *MagicCheck) Description() string {
	return "Validates the ELF magic bytes 7f 45 4c 46"
}

func (c *MagicCheck) Execute(ctx context.Context, binaryPath string) CheckResult {
	return runIdentCheck(ctx, c, binaryPath, func(id elfhdr.Ident, result *CheckResult) {
		result.Metadata["magic"] = fmt.Sprintf("% x", id.Magic[:])
		if id.Magic != elfhdr.Magic {
			result.Status = StatusFail
			result.Details = fmt.Sprintf("Bad magic: % x", id.Magic[:])
			return
		}
		result.Status = StatusPass
		result.Details = "ELF magic present"
	})
}

// ClassCheck verifies EI_CLASS is 32-bit or 64-bit
type ClassCheck struct{}

func (c *ClassCheck) ID() string {
	return "ident-class"
}

func (c *ClassCheck) Description() string {
	return "Validates the file class (32-bit or 64-bit)"
}

func (c *ClassCheck) Execute(ctx context.Context, binaryPath string) CheckResult {
	return runIdentCheck(ctx, c, binaryPath, func(id elfhdr.Ident, result *CheckResult) {
		result.Metadata["class"] = uint8(id.Class)
		if !id.Class.Known() {
			result.Status = StatusFail
			result.Details = fmt.Sprintf("Unknown class 0x%02x", uint8(id.Class))
			return
		}
		result.Status = StatusPass
		result.Details = fmt.Sprintf("Class 0x%02x (%s)", uint8(id.Class), id.Class)
	})
}

// EncodingCheck verifies EI_DATA is little or big endian
type EncodingCheck struct{}

func (c *EncodingCheck) ID() string {
	return "ident-encoding"
}

func (c *EncodingCheck) Description() string {
	return "Validates the data encoding (little or big endian)"
}

func (c *EncodingCheck) Execute(ctx context.Context, binaryPath string) CheckResult {
	return runIdentCheck(ctx, c, binaryPath, func(id elfhdr.Ident, result *CheckResult) {
		result.Metadata["data"] = uint8(id.Data)
		if !id.Data.Known() {
			result.Status = StatusFail
			result.Details = fmt.Sprintf("Unknown data encoding 0x%02x", uint8(id.Data))
			return
		}
		result.Status = StatusPass
		result.Details = fmt.Sprintf("Data encoding 0x%02x (%s)", uint8(id.Data), id.Data)
	})
}

// OSABICheck verifies EI_OSABI is a known operating system ABI
type OSABICheck struct{}

func (c *OSABICheck) ID() string {
	return "ident-osabi"
}

func (c *OSABICheck) Description() string {
	return "Validates the OS/ABI identification"
}

func (c *OSABICheck) Execute(ctx context.Context, binaryPath string) CheckResult {
	return runIdentCheck(ctx, c, binaryPath, func(id elfhdr.Ident, result *CheckResult) {
		result.Metadata["osabi"] = uint8(id.OSABI)
		if !id.OSABI.Known() {
			result.Status = StatusFail
			result.Details = fmt.Sprintf("Unknown OS/ABI 0x%02x", uint8(id.OSABI))
			return
		}
		result.Status = StatusPass
		result.Details = fmt.Sprintf("OS/ABI 0x%02x (%s)", uint8(id.OSABI), id.OSABI)
	})
}

// Header32Check decodes the full 32-bit header
type Header32Check struct{}

func (c *Header32Check) ID() string {
	return "header32-decode"
}

func (c *Header32Check) Description() string {
	return "Decodes the 32-bit ELF header"
}

func (c *Header32Check) Execute(ctx context.Context, binaryPath string) CheckResult {
	start := time.Now()
	log := checkLogger(ctx, c, binaryPath)

	result := CheckResult{
		ID:          c.ID(),
		Description: c.Description(),
		Metadata:    make(map[string]interface{}),
	}

	f, err := elfhdr.Open(binaryPath)
	if err != nil {
		result.Status = StatusError
		result.Details = err.Error()
		result.Duration = time.Since(start)
		log.Debugf("%s: %s", result.Status, result.Details)
		return result
	}
	defer f.Close()

	h, err := elfhdr.ReadHeader32(f)
	switch {
	case err == nil:
		result.Status = StatusPass
		result.Details = fmt.Sprintf("Decoded 32-bit header: type 0x%02x, machine 0x%02x, entry 0x%08x",
			h.Type, h.Machine, h.Entry)
		result.Metadata["header"] = h
	case errors.Is(err, elfhdr.ErrUnsupportedClass):
		result.Status = StatusSkip
		result.Details = fmt.Sprintf("Not a 32-bit ELF file: %v", err)
	case errors.Is(err, elfhdr.ErrReadFailure):
		result.Status = StatusError
		result.Details = err.Error()
	default:
		result.Status = StatusFail
		result.Details = err.Error()
	}

	result.Duration = time.Since(start)
	log.Debugf("%s: %s", result.Status, result.Details)
	return result
}
