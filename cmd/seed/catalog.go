package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// Codificaciones aceptadas por --encoding.
const (
	encodingAuto   = "auto"
	encodingUTF8   = "utf8"
	encodingLatin1 = "latin1"
)

var errNoNameColumn = errors.New("el CSV no tiene columna name/nombre")

// decodeCatalog devuelve el contenido en UTF-8. En modo auto, lo que no es UTF-8 válido se lee como ISO-8859-1
// (exportaciones de Excel en español).
func decodeCatalog(raw []byte, encoding string) (io.Reader, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	switch strings.ToLower(encoding) {
	case encodingUTF8:
		return bytes.NewReader(raw), nil
	case encodingLatin1, "iso-8859-1":
		return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder()), nil
	case encodingAuto, "":
		if utf8.Valid(raw) {
			return bytes.NewReader(raw), nil
		}
		return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder()), nil
	}
	return nil, fmt.Errorf("codificación desconocida %q", encoding)
}

// parseCatalog lee name,sku,description (encabezado obligatorio; acepta nombre/descripcion y ';' como separador).
// Filas sin nombre se omiten.
func parseCatalog(r io.Reader) ([]dto.CreateItemRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "nombre":
			col["name"] = i
		case "sku", "codigo", "código":
			col["sku"] = i
		case "description", "descripcion", "descripción":
			col["description"] = i
		}
	}
	if _, ok := col["name"]; !ok {
		return nil, errNoNameColumn
	}

	field := func(rec []string, key string) string {
		i, ok := col[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []dto.CreateItemRequest
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		name := field(rec, "name")
		if name == "" {
			continue
		}
		out = append(out, dto.CreateItemRequest{
			Name:        name,
			SKU:         field(rec, "sku"),
			Description: field(rec, "description"),
		})
	}
	return out, nil
}

// writeSQL escribe un script de INSERT para cargar el catálogo sin conexión a la base.
func writeSQL(w io.Writer, items []dto.CreateItemRequest, newID func() string) error {
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	var b strings.Builder
	b.WriteString("-- Catálogo de artículos\n")
	b.WriteString("INSERT INTO items (id, name, sku, description) VALUES\n")
	for i, it := range items {
		sep := ","
		if i == len(items)-1 {
			sep = ";"
		}
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s')%s\n",
			newID(), escapeSQL(it.Name), escapeSQL(it.SKU), escapeSQL(it.Description), sep)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
