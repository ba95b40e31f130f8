package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "table", FormatTable.String())
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "yaml", FormatYAML.String())
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, true)

	assert.Equal(t, FormatTable, printer.Format())
	assert.True(t, printer.ColorEnabled())

	printer.Println("3 notes")
	assert.Contains(t, buf.String(), "3 notes")
}

func TestPrinterJSONFallback(t *testing.T) {
	// Table format falls back to JSON for data without a table rendering.
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, false)

	err := printer.Print(map[string]string{"title": "회의록"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "회의록")
}

func TestPrinterFormats(t *testing.T) {
	data := struct {
		Title string `json:"title" yaml:"title"`
	}{Title: "daily-notes"}

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewPrinter(&buf, FormatJSON, false).Print(data)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"title": "daily-notes"`)
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewPrinter(&buf, FormatYAML, false).Print(data)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "title: daily-notes")
	})
}

func TestPrinterMessages(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, FormatTable, false).Success("saved")
		assert.Equal(t, "saved\n", buf.String())
	})

	t.Run("SuccessColored", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, FormatTable, true).Success("saved")
		assert.Contains(t, buf.String(), "saved")
		assert.Contains(t, buf.String(), "\033[32m")
	})

	t.Run("Error", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, FormatTable, false).Error("save failed")
		assert.Contains(t, buf.String(), "save failed")
	})

	t.Run("Warning", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, FormatTable, false).Warning("index lagging")
		assert.Contains(t, buf.String(), "index lagging")
	})
}

func TestDefaultPrinter(t *testing.T) {
	printer := DefaultPrinter()
	assert.NotNil(t, printer)
	assert.Equal(t, FormatTable, printer.Format())
	assert.True(t, printer.ColorEnabled())
}
