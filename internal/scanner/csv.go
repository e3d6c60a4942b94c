package scanner

import (
	"bufio"
	"io/fs"
	"strconv"
	"strings"

	"github.com/ilmartoo-go/lidaranomaly/internal/fsutil"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
)

// Livox-Viewer CSV column indices (0-indexed comma count; spec §4.1, §6):
// column 8 is the point timestamp in nanoseconds, 12 is reflectivity, and
// 14/15/16 are x/y/z in millimeters.
const (
	csvColTimestamp    = 8
	csvColReflectivity = 12
	csvColX            = 14
	csvColY            = 15
	csvColZ            = 16
	csvMinColumns      = csvColZ + 1
)

// CSVFile scans a Livox-Viewer-compatible CSV point file (spec §4.1, §4.3
// Non-goals note the header line is consumed and discarded).
type CSVFile struct {
	fs       fsutil.FileSystem
	path     string
	callback Callback

	file    fs.File
	reader  *bufio.Reader
	line    int
	scanned uint64 // rows parsed successfully since the scanner was created

	scanning bool
	atEOF    bool
}

// NewCSVFile builds a CSVFile scanner reading path through fs.
func NewCSVFile(fs fsutil.FileSystem, path string) *CSVFile {
	return &CSVFile{fs: fs, path: path}
}

// Init opens the file, skipping the mandated header line. Idempotent: a
// second call on an already-open scanner succeeds without reopening.
func (s *CSVFile) Init() bool {
	if s.file != nil {
		monitoring.Logf("csv scanner %s already initialized", s.path)
		return true
	}
	return s.open()
}

func (s *CSVFile) open() bool {
	f, err := s.fs.Open(s.path)
	if err != nil {
		monitoring.Logf("error opening csv file %s: %v", s.path, err)
		return false
	}
	s.file = f
	s.reader = bufio.NewReader(f)
	s.line = 0
	s.atEOF = false

	if _, err := s.reader.ReadString('\n'); err != nil {
		monitoring.Logf("error reading csv header from %s: %v", s.path, err)
		return false
	}
	return true
}

// SetCallback installs the per-point sink.
func (s *CSVFile) SetCallback(cb Callback) { s.callback = cb }

// Scan reads rows until Pause is called or EOF is reached; a row that fails
// to parse is logged and skipped. Returns ScanError if a scan is already
// running, the scanner is not initialized, or reopening on rewind fails.
func (s *CSVFile) Scan() ScanCode {
	if s.scanning {
		monitoring.Logf("csv scanner %s already in use", s.path)
		return ScanError
	}
	if s.file == nil {
		monitoring.Logf("csv scanner %s not initialized", s.path)
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
	for s.scanning {
		line, err := s.reader.ReadString('\n')
		if line == "" && err != nil {
			s.scanning = false
			s.atEOF = true
			monitoring.Logf("csv scanner %s reached EOF at line %d", s.path, s.line)
			return ScanEof
		}
		s.line++

		p, ok := parseCSVRow(line)
		if !ok {
			monitoring.Logf("csv scanner %s: malformed row at line %d, skipping", s.path, s.line)
			if err != nil {
				s.scanning = false
				s.atEOF = true
				return ScanEof
			}
			continue
		}
		s.scanned++

		if s.callback != nil {
			s.callback(p)
		}

		if err != nil {
			s.scanning = false
			s.atEOF = true
			return ScanEof
		}
	}
	return ScanOk
}

// Pause sets the flag the producer loop checks before reading the next row.
func (s *CSVFile) Pause() { s.scanning = false }

// Stop releases the underlying file.
func (s *CSVFile) Stop() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}

// parseCSVRow extracts a LidarPoint from a single non-header CSV row,
// per the column layout documented above. Returns ok=false for a row with
// too few columns or a non-numeric field, so the caller can skip it.
func parseCSVRow(line string) (geom.LidarPoint, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return geom.LidarPoint{}, false
	}
	cols := strings.Split(line, ",")
	if len(cols) < csvMinColumns {
		return geom.LidarPoint{}, false
	}

	nanos, err := strconv.ParseUint(strings.TrimSpace(cols[csvColTimestamp]), 10, 64)
	if err != nil {
		return geom.LidarPoint{}, false
	}
	reflectivity, err := strconv.Atoi(strings.TrimSpace(cols[csvColReflectivity]))
	if err != nil {
		return geom.LidarPoint{}, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(cols[csvColX]), 64)
	if err != nil {
		return geom.LidarPoint{}, false
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(cols[csvColY]), 64)
	if err != nil {
		return geom.LidarPoint{}, false
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(cols[csvColZ]), 64)
	if err != nil {
		return geom.LidarPoint{}, false
	}

	return geom.NewLidarPoint(x, y, z, geom.NewTimestampFromNanos(nanos), reflectivity), true
}
