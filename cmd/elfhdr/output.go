package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/raven-betanet/elfhdr/internal/checks"
	"github.com/raven-betanet/elfhdr/internal/elfhdr"
	"github.com/raven-betanet/elfhdr/internal/utils"
)

// identView is the JSON shape of an ident, with labels resolved
type identView struct {
	Magic      string `json:"magic"`
	Class      uint8  `json:"class"`
	ClassName  string `json:"class_name"`
	Data       uint8  `json:"data"`
	DataName   string `json:"data_name"`
	Version    uint8  `json:"version"`
	OSABI      uint8  `json:"osabi"`
	OSABIName  string `json:"osabi_name"`
	ABIVersion uint8  `json:"abi_version"`
}

func newIdentView(id elfhdr.Ident) identView {
	return identView{
		Magic:      fmt.Sprintf("% x", id.Magic[:]),
		Class:      uint8(id.Class),
		ClassName:  id.Class.String(),
		Data:       uint8(id.Data),
		DataName:   id.Data.String(),
		Version:    id.Version,
		OSABI:      uint8(id.OSABI),
		OSABIName:  id.OSABI.String(),
		ABIVersion: id.ABIVersion,
	}
}

// headerView is the JSON shape of a 32-bit header
type headerView struct {
	Ident       identView `json:"ident"`
	Type        uint16    `json:"type"`
	TypeName    string    `json:"type_name"`
	Machine     uint16    `json:"machine"`
	MachineName string    `json:"machine_name"`
	Version     uint32    `json:"version"`
	Entry       uint32    `json:"entry"`
	PhOff       uint32    `json:"phoff"`
	ShOff       uint32    `json:"shoff"`
	Flags       uint32    `json:"flags"`
	EhSize      uint16    `json:"ehsize"`
	PhEntSize   uint16    `json:"phentsize"`
	PhNum       uint16    `json:"phnum"`
	ShEntSize   uint16    `json:"shentsize"`
	ShNum       uint16    `json:"shnum"`
	ShStrNdx    uint16    `json:"shstrndx"`
}

func newHeaderView(h elfhdr.Header32) headerView {
	typeName, _ := elfhdr.TypeName(h.Type)
	machineName, _ := elfhdr.MachineName(h.Machine)

	return headerView{
		Ident:       newIdentView(h.Ident),
		Type:        h.Type,
		TypeName:    typeName,
		Machine:     h.Machine,
		MachineName: machineName,
		Version:     h.Version,
		Entry:       h.Entry,
		PhOff:       h.PhOff,
		ShOff:       h.ShOff,
		Flags:       h.Flags,
		EhSize:      h.EhSize,
		PhEntSize:   h.PhEntSize,
		PhNum:       h.PhNum,
		ShEntSize:   h.ShEntSize,
		ShNum:       h.ShNum,
		ShStrNdx:    h.ShStrNdx,
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}

func identRows(id elfhdr.Ident) [][]string {
	return [][]string{
		{"ei_mag", fmt.Sprintf("% x", id.Magic[:]), ""},
		{"ei_class", fmt.Sprintf("0x%02x", uint8(id.Class)), id.Class.String()},
		{"ei_data", fmt.Sprintf("0x%02x", uint8(id.Data)), id.Data.String()},
		{"ei_version", fmt.Sprintf("0x%02x", id.Version), ""},
		{"ei_osabi", fmt.Sprintf("0x%02x", uint8(id.OSABI)), id.OSABI.String()},
		{"ei_abiversion", fmt.Sprintf("0x%02x", id.ABIVersion), ""},
	}
}

func writeIdent(w io.Writer, format string, id elfhdr.Ident) error {
	switch format {
	case "json":
		return writeJSON(w, newIdentView(id))
	case "table":
		table := newTable(w, "Field", "Value", "Meaning")
		table.AppendBulk(identRows(id))
		table.Render()
		return nil
	default:
		_, err := fmt.Fprintln(w, id)
		return err
	}
}

func writeHeader(w io.Writer, format string, h elfhdr.Header32) error {
	switch format {
	case "json":
		return writeJSON(w, newHeaderView(h))
	case "table":
		typeName, _ := elfhdr.TypeName(h.Type)
		machineName, _ := elfhdr.MachineName(h.Machine)
		hex := func(v interface{}) string { return fmt.Sprintf("0x%02x", v) }

		table := newTable(w, "Field", "Value", "Meaning")
		table.AppendBulk(identRows(h.Ident))
		table.AppendBulk([][]string{
			{"e_type", hex(h.Type), typeName},
			{"e_machine", hex(h.Machine), machineName},
			{"e_version", hex(h.Version), ""},
			{"e_entry", hex(h.Entry), ""},
			{"e_phoff", hex(h.PhOff), ""},
			{"e_shoff", hex(h.ShOff), ""},
			{"e_flags", hex(h.Flags), ""},
			{"e_ehsize", hex(h.EhSize), ""},
			{"e_phentsize", hex(h.PhEntSize), ""},
			{"e_phnum", hex(h.PhNum), ""},
			{"e_shentsize", hex(h.ShEntSize), ""},
			{"e_shnum", hex(h.ShNum), ""},
			{"e_shstrndx", hex(h.ShStrNdx), ""},
		})
		table.Render()
		return nil
	default:
		_, err := fmt.Fprintln(w, h)
		return err
	}
}

func writeReport(w io.Writer, format string, report *checks.CheckReport) error {
	switch format {
	case "json":
		return writeJSON(w, map[string]interface{}{
			"binary_path": report.BinaryPath,
			"timestamp":   time.Now().Format(time.RFC3339),
			"summary":     report.Summary,
			"checks":      report.Results,
		})
	case "table":
		table := newTable(w, "Check", "Status", "Details")
		for _, result := range report.Results {
			table.Append([]string{result.ID, string(result.Status), result.Details})
		}
		table.SetFooter([]string{"", overallStatus(report), fmt.Sprintf("%d/%d passed", report.Summary.Passed, report.Summary.Total)})
		table.Render()
		return nil
	default:
		return writeReportText(w, report)
	}
}

func overallStatus(report *checks.CheckReport) string {
	if report.OK() {
		return "PASS"
	}
	return "FAIL"
}

func writeReportText(w io.Writer, report *checks.CheckReport) error {
	fmt.Fprintf(w, "ELF Header Check Report\n")
	fmt.Fprintf(w, "=======================\n\n")
	fmt.Fprintf(w, "File: %s\n\n", report.BinaryPath)

	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Total checks: %d\n", report.Summary.Total)
	fmt.Fprintf(w, "  Passed: %d\n", report.Summary.Passed)
	fmt.Fprintf(w, "  Failed: %d\n", report.Summary.Failed)
	fmt.Fprintf(w, "  Skipped: %d\n", report.Summary.Skipped)
	fmt.Fprintf(w, "  Errors: %d\n", report.Summary.Errors)
	fmt.Fprintf(w, "  Overall status: %s\n\n", overallStatus(report))

	fmt.Fprintf(w, "Check Details:\n")
	fmt.Fprintf(w, "--------------\n")

	for _, result := range report.Results {
		fmt.Fprintf(w, "[%s] %s: %s\n", statusLabel(result.Status), result.ID, result.Description)
		if result.Details != "" {
			fmt.Fprintf(w, "    Details: %s\n", result.Details)
		}
		if result.Duration > 0 {
			fmt.Fprintf(w, "    Duration: %v\n", result.Duration)
		}
	}

	return nil
}

func statusLabel(status checks.CheckStatus) string {
	switch status {
	case checks.StatusPass:
		return "PASS"
	case checks.StatusFail:
		return "FAIL"
	case checks.StatusSkip:
		return "SKIP"
	default:
		return "ERROR"
	}
}

func writeVersion(w io.Writer, format string) error {
	if format == "json" {
		return writeJSON(w, utils.GetVersionInfo())
	}
	fmt.Fprintf(w, "elfhdr version %s\n", utils.Version)
	fmt.Fprintf(w, "Commit: %s\n", utils.Commit)
	fmt.Fprintf(w, "Built: %s\n", utils.Date)
	return nil
}
