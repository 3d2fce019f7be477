package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCatalog_Latin1(t *testing.T) {
	utf := "nombre;código;descripción\nAzúcar;AZ-1;Caña refinada\n;SIN-NOMBRE;x\nPiñas;PI-2;\n"
	latin, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(utf))
	require.NoError(t, err)

	r, err := decodeCatalog(latin, encodingAuto)
	require.NoError(t, err)
	items, err := parseCatalog(r)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Azúcar", items[0].Name)
	assert.Equal(t, "AZ-1", items[0].SKU)
	assert.Equal(t, "Caña refinada", items[0].Description)
	assert.Equal(t, "Piñas", items[1].Name)
}

func TestParseCatalog_UTF8WithBOM(t *testing.T) {
	raw := []byte("\xef\xbb\xbfname,sku,description\nParacetamol,MED-PCM-001,\"Analgésico, antipirético\"\n")
	r, err := decodeCatalog(raw, encodingAuto)
	require.NoError(t, err)
	items, err := parseCatalog(r)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Analgésico, antipirético", items[0].Description)
}

func TestParseCatalog_Errors(t *testing.T) {
	_, err := parseCatalog(bytes.NewReader([]byte("sku,description\nA,B\n")))
	assert.ErrorIs(t, err, errNoNameColumn)

	_, err = decodeCatalog([]byte("x"), "ebcdic")
	assert.Error(t, err)
}

func TestWriteSQL(t *testing.T) {
	r, err := decodeCatalog([]byte("name,sku\nO'Brien,OB\nLeche,LE\n"), encodingUTF8)
	require.NoError(t, err)
	items, err := parseCatalog(r)
	require.NoError(t, err)

	ids := []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"}
	var buf bytes.Buffer
	n := 0
	require.NoError(t, writeSQL(&buf, items, func() string { n++; return ids[n-1] }))

	sql := buf.String()
	assert.Contains(t, sql, "('11111111-1111-1111-1111-111111111111', 'O''Brien', 'OB', ''),\n")
	assert.Contains(t, sql, "('22222222-2222-2222-2222-222222222222', 'Leche', 'LE', '');\n")
}
