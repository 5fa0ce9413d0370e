package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studentDataset() Dataset {
	return Dataset{
		Headers: []string{"ID", "Nome", "Turma"},
		Rows: []map[string]string{
			{"ID": "1", "Nome": "João", "Turma": "Maternal I"},
			{"ID": "2", "Nome": "Bia; filha", "Turma": ""},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(CSVOptions{}).Render(studentDataset())
	require.NoError(t, err)
	assert.Equal(t, "ID,Nome,Turma\n1,João,Maternal I\n2,Bia; filha,\n", string(out))

	out, err = NewCSVExporter(CSVOptions{Comma: ';'}).Render(studentDataset())
	require.NoError(t, err)
	assert.Equal(t, "ID;Nome;Turma\n1;João;Maternal I\n2;\"Bia; filha\";\n", string(out))
}

func TestCSVExporterSpreadsheetDialect(t *testing.T) {
	out, err := NewCSVExporter(SpreadsheetCSV).Render(studentDataset())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "ID;Nome;Turma\r\n1;João;Maternal I\r\n2;\"Bia; filha\";\r\n", string(out[len(utf8BOM):]))
}

func TestDatasetRecordFillsMissingCells(t *testing.T) {
	data := Dataset{Headers: []string{"ID", "Turma"}, Rows: []map[string]string{{"ID": "7"}}}

	assert.Equal(t, []string{"7", ""}, data.Record(0))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter(CSVOptions{}).Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(studentDataset(), "Relatório de alunos")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(studentDataset())
	require.Len(t, widths, 3)
	var sum float64
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, pageWidth, sum, 0.001)
	assert.Greater(t, widths[1], widths[0])
}
