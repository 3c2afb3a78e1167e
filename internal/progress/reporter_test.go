package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}
	r.Start(2, "Exporting cases")
	r.Update(1, "acme")
	r.Update(2, "globex")
	r.Finish()

	want := "Exporting cases: 2 steps\n[1/2] acme\n[2/2] globex\nExporting cases: done\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestTerminalReporterWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{Out: &buf}
	r.Start(3, "Exporting cases")
	r.Update(2, "acme")
	r.Finish()
	if !strings.Contains(buf.String(), "acme") {
		t.Errorf("progress bar output missing description: %q", buf.String())
	}
}

func TestUpdateBeforeStart(t *testing.T) {
	r := &TerminalReporter{Out: &bytes.Buffer{}}
	r.Update(1, "x")
	r.Finish()
	var n Nop
	n.Start(1, "x")
	n.Update(1, "x")
	n.Finish()
}
