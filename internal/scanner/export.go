package scanner

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
)

// viewerCSVHeader is the 19-column header line the Livox Viewer mandates
// (spec §6); timestamp, reflectivity and x/y/z sit in columns 8, 12 and
// 14/15/16 (0-indexed), where CSVFile reads them back. Columns not populated
// by this project (slot, tag, ring, temperatures and so on) are written as
// zero.
const viewerCSVHeader = "Version,Slot ID,LiDAR Index,Rsvd,Error Code,Timestamp Type," +
	"Data Type,Points,Timestamp,Tag,Ring,CPTemp,Reflectivity,APDTemp,X,Y,Z,ChipTemp,MCUTemp"

// WriteViewerCSV writes points in the Livox-Viewer-compatible CSV format
// (spec §6): a mandated header line, then one row per point with x/y/z in
// columns 14/15/16. Points carry no timestamp or reflectivity of their own
// (characterize.Face.Points are plain geom.Point); those columns are
// written as zero.
func WriteViewerCSV(w io.Writer, points []geom.Point) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(viewerCSVHeader + "\n"); err != nil {
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "1,0,0,0,0,0,0,1,0,0,0,0,0,0,%.6f,%.6f,%.6f,0,0\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteViewerCSVLidarPoints writes raw LidarPoints, using each point's own
// timestamp and reflectivity reading instead of zeroing those columns.
func WriteViewerCSVLidarPoints(w io.Writer, points []geom.LidarPoint) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(viewerCSVHeader + "\n"); err != nil {
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "1,0,0,0,0,0,0,1,%d,0,0,0,%d,0,%.6f,%.6f,%.6f,0,0\n",
			p.Timestamp.Nanos(), p.Reflectivity, p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}
