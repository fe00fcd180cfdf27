package csvdata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		wantHeaders []string
		wantRows    []map[string]string
	}{
		{
			name:        "empty",
			input:       []byte(""),
			wantHeaders: []string{},
			wantRows:    []map[string]string{},
		},
		{
			name:        "trims headers, keeps values verbatim",
			input:       []byte(" Type ; Valeur \nA; 1,5 \n"),
			wantHeaders: []string{"Type", "Valeur"},
			wantRows:    []map[string]string{{"Type": "A", "Valeur": " 1,5 "}},
		},
		{
			name:        "skips empty lines",
			input:       []byte("a;b\n1;2\n\n\n3;4\n"),
			wantHeaders: []string{"a", "b"},
			wantRows:    []map[string]string{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}},
		},
		{
			name:        "short and long rows",
			input:       []byte("a;b;c\n1\n1;2;3;4\n"),
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    []map[string]string{{"a": "1", "b": "", "c": ""}, {"a": "1", "b": "2", "c": "3"}},
		},
		{
			name:        "strips BOM",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, []byte("Type;n\r\nX;1\r\n")...),
			wantHeaders: []string{"Type", "n"},
			wantRows:    []map[string]string{{"Type": "X", "n": "1"}},
		},
		{
			name:        "windows-1252 fallback",
			input:       []byte("Dur\xe9e arr\xeat;D\xe9signation\n1;M\xe9canique\n"),
			wantHeaders: []string{"Durée arrêt", "Désignation"},
			wantRows:    []map[string]string{{"Durée arrêt": "1", "Désignation": "Mécanique"}},
		},
		{
			name:        "lazy quotes",
			input:       []byte("a;b\nPresse \"P1\";2\n"),
			wantHeaders: []string{"a", "b"},
			wantRows:    []map[string]string{{"a": "Presse \"P1\"", "b": "2"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := ReadCSV(bytes.NewReader(tc.input), ';')
			require.NoError(t, err)
			assert.Equal(t, tc.wantHeaders, tbl.Headers)
			assert.Equal(t, tc.wantRows, tbl.Rows)
		})
	}
}

func TestReadCSV_DefaultDelimiter(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Headers)
}
