package vkframe

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// Vertex is the vertex format of every mesh.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
	TexCoord [2]float32
}

// VertexLayout describes Vertex to a pipeline: position at location 0,
// color at 1 and texture coordinates at 2.
var VertexLayout = gpu.VertexLayout{
	Stride: uint32(unsafe.Sizeof(Vertex{})),
	Attributes: []gpu.VertexAttribute{
		{Location: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Format: gpu.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Location: 2, Format: gpu.FormatR32G32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.TexCoord))},
	},
}

// MeshData is indexed triangle data in host memory.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Validate checks the data is non-empty and every index is in range.
func (d *MeshData) Validate() error {
	if d == nil || len(d.Vertices) == 0 {
		return errors.Wrap(ErrInvalidDescription, "mesh has no vertices")
	}
	if len(d.Indices) == 0 {
		return errors.Wrap(ErrInvalidDescription, "mesh has no indices")
	}
	for i, idx := range d.Indices {
		if int(idx) >= len(d.Vertices) {
			return errors.Wrapf(ErrInvalidDescription, "index %d refers to vertex %d of %d", i, idx, len(d.Vertices))
		}
	}
	return nil
}

// MeshLoader reads mesh files.
type MeshLoader interface {
	LoadMesh(path string) (*MeshData, error)
}

// Mesh is an uploaded mesh.
type Mesh struct {
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	VertexCount  uint32
	IndexCount   uint32
}

func (m *Mesh) destroy() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Destroy()
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Destroy()
	}
}

// sliceBytes views the backing memory of s as bytes.
func sliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// LoadModel reads a mesh file with the configured MeshLoader and uploads it.
func (r *Renderer) LoadModel(path string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "LoadModel"
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}
	if r.meshLoader == nil {
		return NoHandle, creationError(op, errors.New("no mesh loader configured"))
	}
	data, err := r.meshLoader.LoadMesh(path)
	if err != nil {
		return NoHandle, creationError(op, errors.Wrapf(err, "load %s", path))
	}
	return r.newMesh(op, data)
}

// NewMesh uploads mesh data from memory.
func (r *Renderer) NewMesh(data *MeshData) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "NewMesh"
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}
	return r.newMesh(op, data)
}

func (r *Renderer) newMesh(op string, data *MeshData) (Handle, error) {
	if err := data.Validate(); err != nil {
		return NoHandle, creationError(op, err)
	}
	vb, err := r.uploadBuffer(sliceBytes(data.Vertices), gpu.BufferUsageVertex, "vertices")
	if err != nil {
		return NoHandle, r.deviceError(op, err)
	}
	ib, err := r.uploadBuffer(sliceBytes(data.Indices), gpu.BufferUsageIndex, "indices")
	if err != nil {
		vb.Destroy()
		return NoHandle, r.deviceError(op, err)
	}
	h := r.meshes.Insert(&Mesh{
		VertexBuffer: vb,
		IndexBuffer:  ib,
		VertexCount:  uint32(len(data.Vertices)),
		IndexCount:   uint32(len(data.Indices)),
	})
	Logger().Debug("mesh created", "handle", h, "vertices", len(data.Vertices), "indices", len(data.Indices))
	return h, nil
}

// uploadBuffer copies data into a new device local buffer through a
// staging buffer.
func (r *Renderer) uploadBuffer(data []byte, usage gpu.BufferUsage, label string) (gpu.Buffer, error) {
	size := uint64(len(data))
	staging, err := r.dev.CreateBuffer(gpu.BufferDesc{
		Size:        size,
		Usage:       gpu.BufferUsageTransferSrc,
		HostVisible: true,
		Label:       label + " staging",
	})
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()
	if err := staging.Write(0, data); err != nil {
		return nil, errors.Wrap(err, "fill staging buffer")
	}

	dst, err := r.dev.CreateBuffer(gpu.BufferDesc{
		Size:  size,
		Usage: usage | gpu.BufferUsageTransferDst,
		Label: label,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create %s buffer", label)
	}
	err = r.submitOnce(func(cmd gpu.CommandBuffer) error {
		cmd.CopyBuffer(staging, dst, size)
		return nil
	})
	if err != nil {
		dst.Destroy()
		return nil, err
	}
	return dst, nil
}
