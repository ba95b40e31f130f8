package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Title", "Updated", "By")

	assert.Equal(t, []string{"Title", "Updated", "By"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("회의록", "2h ago", "alice")
	table.AddRow("배포 체크리스트", "3d ago", "bob")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"회의록", "2h ago", "alice"}, rows[0])
	assert.Equal(t, []string{"배포 체크리스트", "3d ago", "bob"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Title", "Revision")
	table.AddRow("daily-notes", "0a1b2c3d")
	table.AddRow("roadmap", "4e5f6a7b")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "TITLE")
	assert.Contains(t, output, "REVISION")
	assert.Contains(t, output, "daily-notes")
	assert.Contains(t, output, "0a1b2c3d")
	assert.Contains(t, output, "roadmap")
	assert.Contains(t, output, "4e5f6a7b")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Status", "Running"},
		{"Uptime", "3d 2h 10m 5s"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Status")
	assert.Contains(t, output, "Running")
	assert.Contains(t, output, "Uptime")
	assert.Contains(t, output, "3d 2h 10m 5s")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := PrintJSON(&buf, map[string]int{"total": 41})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"total": 41`)
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	err := PrintYAML(&buf, map[string]int{"total": 41})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "total: 41")
}
