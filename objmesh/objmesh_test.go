package objmesh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quad = `
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func TestDecodeQuad(t *testing.T) {
	data, err := Loader{}.Decode(strings.NewReader(quad), strings.NewReader(""))
	require.NoError(t, err)

	require.Len(t, data.Vertices, 4, "shared corners are merged")
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, data.Indices)

	assert.Equal(t, [3]float32{1, 0, 0}, data.Vertices[1].Position)
	assert.Equal(t, [2]float32{1, 1}, data.Vertices[1].TexCoord, "v is flipped")
	assert.Equal(t, [2]float32{0, 0}, data.Vertices[3].TexCoord)
	assert.Equal(t, [3]float32{1, 1, 1}, data.Vertices[0].Color)
}

func TestDecodeColor(t *testing.T) {
	for _, c := range [][3]float32{{1, 0, 0}, {0, 0, 0}} {
		data, err := Loader{Color: &c}.Decode(strings.NewReader(quad), strings.NewReader(""))
		require.NoError(t, err)
		for _, v := range data.Vertices {
			assert.Equal(t, c, v.Color)
		}
	}
}

func TestDecodeWithoutTexCoords(t *testing.T) {
	data, err := Loader{}.Decode(strings.NewReader(`
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`), strings.NewReader(""))
	require.NoError(t, err)
	require.Len(t, data.Vertices, 3)
	for _, v := range data.Vertices {
		assert.Equal(t, [2]float32{}, v.TexCoord)
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Loader{}.Decode(strings.NewReader("# nothing\n"), strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadMesh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quad), 0o644))

	data, err := Loader{}.LoadMesh(path)
	require.NoError(t, err)
	assert.Len(t, data.Indices, 6)

	_, err = Loader{}.LoadMesh(filepath.Join(dir, "missing.obj"))
	assert.Error(t, err)
}
