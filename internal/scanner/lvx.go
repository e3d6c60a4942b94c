package scanner

import (
	"encoding/binary"
	"io"
	"io/fs"

	"github.com/ilmartoo-go/lidaranomaly/internal/fsutil"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
)

// Livox LVX file layout constants (spec §4.1, §9 glossary "LVX").
const (
	lvxSignature       = "livox_tech"
	lvxSignatureSize   = 16
	lvxMagicCode       = 0xac0ea767
	lvxDeviceInfoSize  = 59 // per-device block in the public header
	lvxFrameHeaderSize = 24 // current_offset, next_offset, frame_index (uint64 x3)

	// kExtendCartesian is the only data_type this reader decodes (spec
	// §4.1): 96 points of 14 bytes (x,y,z int32 + reflectivity + tag).
	lvxDataTypeExtendCartesian = 2
	lvxExtendCartesianPoints   = 96
	lvxExtendCartesianPointLen = 14
	lvxExtendCartesianDataLen  = lvxExtendCartesianPoints * lvxExtendCartesianPointLen
)

// LVXFile scans a Livox binary LVX file, honoring the V0/V1 packet header
// layout and iterating frames -> packets -> points, consuming only
// kExtendCartesian packets. It tracks the three-level offset spec §4.1
// requires for exact pause/resume: the current frame's buffered packet
// bytes (frame), the byte offset within that buffer (packet group), and the
// point offset within the packet currently being iterated (point).
type LVXFile struct {
	fs       fsutil.FileSystem
	path     string
	callback Callback

	file    fs.File
	version uint8 // 0 or 1, packet header layout selector

	frame       []byte // the current frame's packet bytes
	frameOffset int    // byte offset into frame, 0 == need next frame
	pointOffset int    // point offset within the packet at frameOffset

	scanning bool
	atEOF    bool
}

// NewLVXFile builds an LVXFile scanner reading path through fs.
func NewLVXFile(fs fsutil.FileSystem, path string) *LVXFile {
	return &LVXFile{fs: fs, path: path}
}

// Init opens the file and reads its public header (signature, version,
// device info block), leaving the cursor at the first frame.
func (s *LVXFile) Init() bool {
	if s.file != nil {
		monitoring.Logf("lvx scanner %s already initialized", s.path)
		return true
	}
	return s.open()
}

func (s *LVXFile) open() bool {
	f, err := s.fs.Open(s.path)
	if err != nil {
		monitoring.Logf("error opening lvx file %s: %v", s.path, err)
		return false
	}
	s.file = f
	s.frame = nil
	s.frameOffset, s.pointOffset = 0, 0
	s.atEOF = false

	if err := s.readPublicHeader(); err != nil {
		monitoring.Logf("error reading lvx header from %s: %v", s.path, err)
		f.Close()
		s.file = nil
		return false
	}
	return true
}

func (s *LVXFile) readPublicHeader() error {
	sig := make([]byte, lvxSignatureSize)
	if _, err := io.ReadFull(s.file, sig); err != nil {
		return err
	}

	var version [4]byte
	if _, err := io.ReadFull(s.file, version[:]); err != nil {
		return err
	}
	s.version = version[0]

	var magic uint32
	if err := binary.Read(s.file, binary.LittleEndian, &magic); err != nil {
		return err
	}

	var deviceCount uint8
	if err := binary.Read(s.file, binary.LittleEndian, &deviceCount); err != nil {
		return err
	}
	if deviceCount > 0 {
		skip := make([]byte, int(deviceCount)*lvxDeviceInfoSize)
		if _, err := io.ReadFull(s.file, skip); err != nil {
			return err
		}
	}
	return nil
}

// SetCallback installs the per-point sink.
func (s *LVXFile) SetCallback(cb Callback) { s.callback = cb }

// Scan iterates frames -> packets -> points until Pause is called, EOF is
// reached, or a read fails.
func (s *LVXFile) Scan() ScanCode {
	if s.scanning {
		monitoring.Logf("lvx scanner %s already in use", s.path)
		return ScanError
	}
	if s.file == nil {
		monitoring.Logf("lvx scanner %s not initialized", s.path)
		return ScanError
	}

	// Rewind on re-scan after EOF (spec §4.1).
	if s.atEOF {
		s.file.Close()
		s.file = nil
		if !s.open() {
			return ScanError
		}
	}

	s.scanning = true
	return s.readData()
}

func (s *LVXFile) readData() ScanCode {
	for {
		if s.frame == nil {
			frame, err := s.nextFrame()
			if err == io.EOF {
				s.scanning = false
				s.atEOF = true
				monitoring.Logf("lvx scanner %s reached EOF", s.path)
				return ScanEof
			}
			if err != nil {
				s.scanning = false
				monitoring.Logf("lvx scanner %s: read error: %v", s.path, err)
				return ScanError
			}
			s.frame = frame
		}

		for s.frameOffset < len(s.frame) {
			// Packet layout (version, slot, id, rsvd, err_code, timestamp_type,
			// data_type, timestamp[8], data...); V1 packets add a one-byte
			// device_index prefix V0 lacks.
			prefix := 1
			if s.version == 0 {
				prefix = 0
			}
			headerSize := prefix + 18
			if s.frameOffset+headerSize > len(s.frame) {
				return ScanError
			}
			header := s.frame[s.frameOffset : s.frameOffset+headerSize]
			dataTypeOff := prefix + 9
			timestampOff := prefix + 10
			dataType := header[dataTypeOff]
			timestampNanos := binary.LittleEndian.Uint64(header[timestampOff : timestampOff+8])
			data := s.frame[s.frameOffset+headerSize:]

			if dataType == lvxDataTypeExtendCartesian {
				if !s.deliverPoints(data, timestampNanos) {
					return ScanOk
				}
			}

			s.pointOffset = 0
			s.frameOffset += headerSize + lvxExtendCartesianDataLen
		}

		s.frame = nil
		s.frameOffset = 0
	}
}

// deliverPoints walks the points of a single kExtendCartesian packet
// starting at s.pointOffset, invoking the callback for each. Returns false
// if Pause stopped delivery mid-packet, preserving pointOffset for resume.
func (s *LVXFile) deliverPoints(data []byte, timestampNanos uint64) bool {
	ts := geom.NewTimestampFromNanos(timestampNanos)
	for s.pointOffset < lvxExtendCartesianPoints {
		off := s.pointOffset * lvxExtendCartesianPointLen
		if off+lvxExtendCartesianPointLen > len(data) {
			break
		}
		x := int32(binary.LittleEndian.Uint32(data[off : off+4]))
		y := int32(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		z := int32(binary.LittleEndian.Uint32(data[off+8 : off+12]))
		reflectivity := int(data[off+12])

		if s.callback != nil {
			s.callback(geom.NewLidarPoint(float64(x), float64(y), float64(z), ts, reflectivity))
		}

		s.pointOffset++
		if !s.scanning {
			return false
		}
	}
	return true
}

// nextFrame reads one frame header and its packet bytes.
func (s *LVXFile) nextFrame() ([]byte, error) {
	var current, next, index uint64
	if err := binary.Read(s.file, binary.LittleEndian, &current); err != nil {
		return nil, err
	}
	if err := binary.Read(s.file, binary.LittleEndian, &next); err != nil {
		return nil, err
	}
	if err := binary.Read(s.file, binary.LittleEndian, &index); err != nil {
		return nil, err
	}

	size := int64(next) - int64(current) - lvxFrameHeaderSize
	if size <= 0 {
		return nil, io.EOF
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(s.file, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Pause sets the flag the producer loop checks before the next point (or
// packet boundary), preserving the frame/frameOffset/pointOffset triple.
func (s *LVXFile) Pause() { s.scanning = false }

// Stop releases the underlying file.
func (s *LVXFile) Stop() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}
