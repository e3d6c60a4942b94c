package scanner

import (
	"context"

	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
	"github.com/ilmartoo-go/lidaranomaly/internal/serialmux"
)

// LidarDevice scans a live Livox sensor over its serial control/data channel
// using the project's serial port multiplexer (internal/serialmux): Init
// brings the sensor up via SerialMux.Initialize (clock sync, cartesian
// output mode, sampling start) and Scan subscribes to the broadcast line
// stream, parsing each line with the same column layout as CSVFile.
type LidarDevice struct {
	path string
	opts serialmux.PortOptions

	callback Callback

	mux        serialmux.SerialMuxInterface
	subID      string
	lines      chan string
	cancel     context.CancelFunc
	monitorErr chan error

	scanning bool
}

// NewLidarDevice builds a LidarDevice scanner for the serial port at path.
func NewLidarDevice(path string, opts serialmux.PortOptions) *LidarDevice {
	return &LidarDevice{path: path, opts: opts}
}

// setMux injects a SerialMuxInterface directly, bypassing Init's real
// serial dial; used by tests to drive the scanner against a mock port.
func (d *LidarDevice) setMux(mux serialmux.SerialMuxInterface) { d.mux = mux }

// Init opens the serial connection and runs the sensor bring-up sequence.
// Idempotent.
func (d *LidarDevice) Init() bool {
	if d.mux != nil {
		monitoring.Logf("lidar device %s already initialized", d.path)
		return true
	}

	mux, err := serialmux.NewRealSerialMux(d.path, d.opts)
	if err != nil {
		monitoring.Logf("error opening lidar device %s: %v", d.path, err)
		return false
	}
	if err := mux.Initialize(); err != nil {
		monitoring.Logf("error initializing lidar device %s: %v", d.path, err)
		mux.Close()
		return false
	}
	d.mux = mux
	return true
}

// SetCallback installs the per-point sink.
func (d *LidarDevice) SetCallback(cb Callback) { d.callback = cb }

// Scan subscribes to the multiplexer's line stream and delivers parsed
// points until Pause is called or the connection fails. A live device has
// no natural EOF: a closed or errored port reports ScanError, never ScanEof.
func (d *LidarDevice) Scan() ScanCode {
	if d.scanning {
		monitoring.Logf("lidar device %s already in use", d.path)
		return ScanError
	}
	if d.mux == nil {
		monitoring.Logf("lidar device %s not initialized", d.path)
		return ScanError
	}

	if d.lines == nil {
		d.subID, d.lines = d.mux.Subscribe()
		ctx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel
		d.monitorErr = make(chan error, 1)
		go func() { d.monitorErr <- d.mux.Monitor(ctx) }()
	}

	d.scanning = true
	for d.scanning {
		select {
		case line, ok := <-d.lines:
			if !ok {
				d.scanning = false
				monitoring.Logf("lidar device %s: line stream closed", d.path)
				return ScanError
			}
			p, valid := parseCSVRow(line)
			if !valid {
				monitoring.Logf("lidar device %s: malformed line, skipping", d.path)
				continue
			}
			if d.callback != nil {
				d.callback(p)
			}
		case err := <-d.monitorErr:
			d.scanning = false
			monitoring.Logf("lidar device %s: monitor stopped: %v", d.path, err)
			return ScanError
		}
	}
	return ScanOk
}

// Pause sets the flag the read loop checks before the next line, leaving
// the subscription and monitor goroutine running so Scan can resume.
func (d *LidarDevice) Pause() { d.scanning = false }

// Stop unsubscribes, cancels the monitor goroutine and closes the serial
// connection.
func (d *LidarDevice) Stop() {
	d.scanning = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.mux != nil {
		if d.subID != "" {
			d.mux.Unsubscribe(d.subID)
			d.subID = ""
		}
		d.mux.Close()
		d.mux = nil
	}
	d.lines = nil
}
