package ux

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testData struct {
	Name  string `json:"display_name"`
	Value int    `json:"value"`
}

type rendered struct{}

func (rendered) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, "custom text")
	return err
}

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"yaml", false},
		{"text", false},
		{"", false},
		{"xml", true},
	}

	for _, tt := range tests {
		_, err := NewFormatter(tt.format, nil)
		assert.Equal(t, tt.wantErr, err != nil, tt.format)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter("json", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, f.Format(testData{Name: "test", Value: 42}))
	assert.Contains(t, buf.String(), `"display_name": "test"`)

	buf.Reset()
	f, _ = NewFormatter("json", &FormatterOptions{Writer: &buf, Compact: true})
	require.NoError(t, f.Format(testData{Name: "x"}))
	assert.Equal(t, "{\"display_name\":\"x\",\"value\":0}\n", buf.String())
}

func TestYAMLFormatterUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, f.Format(testData{Name: "test", Value: 42}))
	assert.Contains(t, buf.String(), "display_name: test")
	assert.Contains(t, buf.String(), "value: 42")
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter("text", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, f.Format("plain"))
	require.NoError(t, f.Format(rendered{}))
	require.NoError(t, f.Format(stringer{}))
	assert.Equal(t, "plain\ncustom text\nfrom stringer\n", buf.String())

	assert.Error(t, f.Format(testData{}))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"ID", "STATUS"}, [][]string{
		{"C1", "approved"},
		{"C200", "submitted"},
	}))

	assert.Equal(t, "ID    STATUS\nC1    approved\nC200  submitted\n", buf.String())
}

func TestTableWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, nil, [][]string{{"Status:", "ok"}, {"Model:", "Facenet512"}}))

	assert.Equal(t, "Status:  ok\nModel:   Facenet512\n", buf.String())
}
