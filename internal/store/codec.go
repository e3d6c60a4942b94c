// Package store persists CharacterizedObjects and Models to a catalog:
// SQLite holds the name/kind metadata (spec §3's object/model registry),
// while each row's BLOB column carries the object in the custom binary wire
// format spec §6 names: [BBox][nfaces], then per face [npoints][Point ×
// npoints]. A Model additionally prefixes a [name_len][name] header and
// tags each face slot with a stable face ID, and (per this project's
// extension to the format) stores each face's bounding box and minimum-BBox
// rotation angles inline so a reloaded model's faces don't need re-deriving their
// orientation from scratch.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
)

// ErrTruncated is returned when a binary record ends before its declared
// point or face count is satisfied.
var ErrTruncated = errors.New("store: truncated record")

// Model is a named, registered Object whose faces carry stable slot IDs so
// repeated analyze runs can refer to "the front face" even if a later
// re-characterization reorders the face list (spec §3 registry).
type Model struct {
	Name    string
	Object  characterize.Object
	FaceIDs []int // parallel to Object.Faces
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeInt64(w io.Writer, v int64) error { return writeUint64(w, uint64(v)) }

func readInt64(r io.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

func writeFloat64(w io.Writer, v float64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	_, err := w.Write(b[:])
	return err
}

func readFloat64(r io.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

func writePoint(w io.Writer, p geom.Point) error {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if err := writeFloat64(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readPoint(r io.Reader) (geom.Point, error) {
	var vals [3]float64
	for i := range vals {
		v, err := readFloat64(r)
		if err != nil {
			return geom.Point{}, err
		}
		vals[i] = v
	}
	return geom.Point{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func writeBBox(w io.Writer, b geom.BBox) error {
	for _, v := range [3]float64{b.DX, b.DY, b.DZ} {
		if err := writeFloat64(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readBBox(r io.Reader) (geom.BBox, error) {
	var vals [3]float64
	for i := range vals {
		v, err := readFloat64(r)
		if err != nil {
			return geom.BBox{}, err
		}
		vals[i] = v
	}
	return geom.BBox{DX: vals[0], DY: vals[1], DZ: vals[2]}, nil
}

// writeFace encodes a Face as [BBox][Angles][npoints][Point × npoints].
func writeFace(w io.Writer, f characterize.Face) error {
	if err := writeBBox(w, f.BBox); err != nil {
		return err
	}
	if err := writePoint(w, f.Angles); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(f.Points))); err != nil {
		return err
	}
	for _, p := range f.Points {
		if err := writePoint(w, p); err != nil {
			return err
		}
	}
	return nil
}

func readFace(r io.Reader) (characterize.Face, error) {
	bbox, err := readBBox(r)
	if err != nil {
		return characterize.Face{}, err
	}
	angles, err := readPoint(r)
	if err != nil {
		return characterize.Face{}, err
	}
	npoints, err := readUint64(r)
	if err != nil {
		return characterize.Face{}, err
	}
	points := make([]geom.Point, npoints)
	for i := range points {
		p, err := readPoint(r)
		if err != nil {
			return characterize.Face{}, err
		}
		points[i] = p
	}
	return characterize.Face{Points: points, BBox: bbox, Angles: angles}, nil
}

// EncodeObject writes o in the plain object wire format: [BBox][nfaces],
// then per face [BBox][Angles][npoints][Point × npoints] (see writeFace).
func EncodeObject(w io.Writer, o characterize.Object) error {
	if err := writeBBox(w, o.BBox); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(o.Faces))); err != nil {
		return err
	}
	for _, f := range o.Faces {
		if err := writeFace(w, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodeObject reads a record written by EncodeObject.
func DecodeObject(r io.Reader) (characterize.Object, error) {
	bbox, err := readBBox(r)
	if err != nil {
		return characterize.Object{}, err
	}
	nfaces, err := readUint64(r)
	if err != nil {
		return characterize.Object{}, err
	}
	faces := make([]characterize.Face, nfaces)
	for i := range faces {
		f, err := readFace(r)
		if err != nil {
			return characterize.Object{}, err
		}
		faces[i] = f
	}
	return characterize.Object{BBox: bbox, Faces: faces}, nil
}

// EncodeModel writes m as [name_len][name][BBox][nfaces], then per face
// [faceID][BBox][Angles][npoints][Point × npoints] — the object format with
// a name header and a per-slot face ID tag (spec §6).
func EncodeModel(w io.Writer, m Model) error {
	nameBytes := []byte(m.Name)
	if err := writeUint64(w, uint64(len(nameBytes))); err != nil {
		return err
	}
	if _, err := w.Write(nameBytes); err != nil {
		return err
	}
	if err := writeBBox(w, m.Object.BBox); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(m.Object.Faces))); err != nil {
		return err
	}
	for i, f := range m.Object.Faces {
		id := i
		if i < len(m.FaceIDs) {
			id = m.FaceIDs[i]
		}
		if err := writeInt64(w, int64(id)); err != nil {
			return err
		}
		if err := writeFace(w, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodeModel reads a record written by EncodeModel.
func DecodeModel(r io.Reader) (Model, error) {
	nameLen, err := readUint64(r)
	if err != nil {
		return Model{}, err
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return Model{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	bbox, err := readBBox(r)
	if err != nil {
		return Model{}, err
	}
	nfaces, err := readUint64(r)
	if err != nil {
		return Model{}, err
	}
	faces := make([]characterize.Face, nfaces)
	ids := make([]int, nfaces)
	for i := range faces {
		id, err := readInt64(r)
		if err != nil {
			return Model{}, err
		}
		f, err := readFace(r)
		if err != nil {
			return Model{}, err
		}
		ids[i] = int(id)
		faces[i] = f
	}

	return Model{
		Name:    string(nameBytes),
		Object:  characterize.Object{BBox: bbox, Faces: faces},
		FaceIDs: ids,
	}, nil
}

// EncodeObjectBytes and DecodeObjectBytes are convenience wrappers for
// callers that want a []byte rather than a streaming io.Writer/Reader (the
// catalog's BLOB column, mainly).
func EncodeObjectBytes(o characterize.Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeObject(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeObjectBytes(data []byte) (characterize.Object, error) {
	return DecodeObject(bytes.NewReader(data))
}

func EncodeModelBytes(m Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeModel(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeModelBytes(data []byte) (Model, error) {
	return DecodeModel(bytes.NewReader(data))
}
