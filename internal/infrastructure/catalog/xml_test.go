package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParse_Latin1(t *testing.T) {
	src := `<?xml version="1.0" encoding="ISO-8859-1"?>
<catalogo>
  <producto sku="LAP-14" nombre="Portátil 14 pulgadas"><descripcion>Equipo de cómputo</descripcion></producto>
  <producto sku="PAP-A4" nombre="Resma papel A4"/>
</catalogo>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	items, err := Parse(bytes.NewReader([]byte(encoded)))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "LAP-14", items[0].SKU)
	assert.Equal(t, "Portátil 14 pulgadas", items[0].Name)
	assert.Equal(t, "Equipo de cómputo", items[0].Description)
	assert.Equal(t, "Resma papel A4", items[1].Name)
}

func TestParse_Windows1252(t *testing.T) {
	src := `<?xml version="1.0" encoding="windows-1252"?>
<catalogo><producto sku="SIL-01" nombre="Silla ergonómica"/></catalogo>`
	encoded, err := charmap.Windows1252.NewEncoder().String(src)
	require.NoError(t, err)

	items, err := Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Silla ergonómica", items[0].Name)
}

func TestParse_OmiteIncompletosYRepetidos(t *testing.T) {
	src := `<catalogo>
  <producto sku=" MON-24 " nombre=" Monitor 24 "/>
  <producto sku="MON-24" nombre="Monitor repetido"/>
  <producto sku="" nombre="Sin SKU"/>
  <producto sku="X-1" nombre=""/>
</catalogo>`
	items, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "MON-24", items[0].SKU)
	assert.Equal(t, "Monitor 24", items[0].Name)
}

func TestParse_Errores(t *testing.T) {
	_, err := Parse(strings.NewReader(`<catalogo><producto`))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(`<?xml version="1.0" encoding="EBCDIC"?><catalogo/>`))
	assert.Error(t, err)
}
