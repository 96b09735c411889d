// Package catalog lee el catálogo de productos exportado por el sistema de compras
// (XML en ISO-8859-1 o Windows-1252) para la carga inicial.
package catalog

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/almacen-api/internal/application/dto"
)

type catalogo struct {
	Productos []producto `xml:"producto"`
}

type producto struct {
	SKU         string `xml:"sku,attr"`
	Nombre      string `xml:"nombre,attr"`
	Descripcion string `xml:"descripcion"`
}

// Parse decodifica el catálogo. Omite entradas sin SKU o sin nombre y SKUs repetidos
// (gana la primera aparición).
func Parse(r io.Reader) ([]dto.CreateProductRequest, error) {
	var c catalogo
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Productos))
	out := make([]dto.CreateProductRequest, 0, len(c.Productos))
	for _, p := range c.Productos {
		sku := strings.TrimSpace(p.SKU)
		name := strings.TrimSpace(p.Nombre)
		if sku == "" || name == "" {
			continue
		}
		if _, dup := seen[sku]; dup {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, dto.CreateProductRequest{
			SKU:         sku,
			Name:        name,
			Description: strings.TrimSpace(p.Descripcion),
		})
	}
	return out, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToUpper(strings.ReplaceAll(charset, "_", "-")) {
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "UTF-8", "":
		return input, nil
	default:
		return nil, fmt.Errorf("codificación no soportada: %s", charset)
	}
}
