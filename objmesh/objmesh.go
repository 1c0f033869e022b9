// Package objmesh loads Wavefront OBJ files as vkframe mesh data.
package objmesh

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/pkg/errors"

	"github.com/celer/vkframe"
)

// Loader reads OBJ files, picking up a material library of the same base
// name when one exists. It implements vkframe.MeshLoader.
type Loader struct {
	// Color, if set, is given to every vertex. Nil means white.
	Color *[3]float32
}

var _ vkframe.MeshLoader = Loader{}

func (l Loader) LoadMesh(path string) (*vkframe.MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mtl io.Reader = strings.NewReader("")
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if m, err := os.Open(mtlPath); err == nil {
		defer m.Close()
		mtl = m
	}
	data, err := l.Decode(f, mtl)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return data, nil
}

// Decode reads an OBJ stream. Polygons are split into triangle fans and
// vertices sharing a position and texture coordinate are merged.
func (l Loader) Decode(objReader, mtlReader io.Reader) (*vkframe.MeshData, error) {
	dec, err := obj.DecodeReader(objReader, mtlReader)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}
	for _, w := range dec.Warnings {
		vkframe.Logger().Debug("obj decoder", "warning", w)
	}

	color := [3]float32{1, 1, 1}
	if l.Color != nil {
		color = *l.Color
	}
	b := builder{dec: dec, color: color, seen: make(map[corner]uint32)}
	for _, o := range dec.Objects {
		for _, face := range o.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				if err := b.add(face, 0); err != nil {
					return nil, err
				}
				if err := b.add(face, i-1); err != nil {
					return nil, err
				}
				if err := b.add(face, i); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := b.data.Validate(); err != nil {
		return nil, err
	}
	return &b.data, nil
}

type corner struct {
	position int
	uv       int
}

type builder struct {
	dec   *obj.Decoder
	color [3]float32
	seen  map[corner]uint32
	data  vkframe.MeshData
}

func (b *builder) add(face obj.Face, n int) error {
	c := corner{position: face.Vertices[n], uv: -1}
	if n < len(face.Uvs) {
		if uv := face.Uvs[n]; uv >= 0 && uv*2+1 < len(b.dec.Uvs) {
			c.uv = uv
		}
	}
	if index, ok := b.seen[c]; ok {
		b.data.Indices = append(b.data.Indices, index)
		return nil
	}

	p := c.position * 3
	if c.position < 0 || p+2 >= len(b.dec.Vertices) {
		return errors.Errorf("face references missing vertex %d", c.position)
	}
	v := vkframe.Vertex{
		Position: [3]float32{b.dec.Vertices[p], b.dec.Vertices[p+1], b.dec.Vertices[p+2]},
		Color:    b.color,
	}
	if c.uv >= 0 {
		// OBJ puts v=0 at the bottom of the image.
		v.TexCoord = [2]float32{b.dec.Uvs[c.uv*2], 1 - b.dec.Uvs[c.uv*2+1]}
	}

	index := uint32(len(b.data.Vertices))
	b.data.Vertices = append(b.data.Vertices, v)
	b.data.Indices = append(b.data.Indices, index)
	b.seen[c] = index
	return nil
}
