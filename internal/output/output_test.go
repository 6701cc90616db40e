package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop-web/internal/model"
)

func plainPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut, ColorNever), &out, &errOut
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in   string
		want ColorMode
	}{
		{"auto", ColorAuto},
		{"", ColorAuto},
		{"always", ColorAlways},
		{"never", ColorNever},
	}
	for _, tt := range tests {
		got, err := ParseColorMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestPrinter_Plain(t *testing.T) {
	p, out, errOut := plainPrinter()

	p.Success("logged in as %s", "Ann")
	p.Info("hello")
	p.Header("Jobs")
	p.Warning("careful")

	assert.Equal(t, "[OK] logged in as Ann\nhello\n\nJobs\n----\n", out.String())
	assert.Equal(t, "[WARN] careful\n", errOut.String())
	assert.Equal(t, "hired", p.Status(model.StatusHired))
	assert.Equal(t, "*", p.Unread(false))
	assert.Empty(t, p.Unread(true))
}

func TestFormatError(t *testing.T) {
	p, _, errOut := plainPrinter()

	p.FormatError(&CLIError{Summary: "not logged in", Suggestion: "Run 'jobctl login'", ExitCode: ExitAuthError})

	assert.Equal(t, "[ERROR] not logged in\n  Suggestion: Run 'jobctl login'\n", errOut.String())
	assert.NotContains(t, errOut.String(), "Cause:")
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "TITLE")
	table.AddRow("j-1", "Welder")
	table.AddRow("j-2", "Electrician")

	require.NoError(t, table.Render())
	assert.Equal(t, 2, table.Len())
	assert.Contains(t, buf.String(), "TITLE")
	assert.Contains(t, buf.String(), "Welder")
	assert.Contains(t, buf.String(), "j-2")
}
