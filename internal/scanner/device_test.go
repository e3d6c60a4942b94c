package scanner

import (
	"testing"
	"time"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/serialmux"
	"github.com/stretchr/testify/require"
)

func TestLidarDeviceDecodesStreamedLines(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	port.BlockReads = true
	mux := serialmux.NewSerialMux(port)

	d := NewLidarDevice("/dev/mock", serialmux.PortOptions{})
	d.setMux(mux)

	var got []geom.LidarPoint
	d.SetCallback(func(p geom.LidarPoint) {
		got = append(got, p)
		if len(got) == 2 {
			d.Pause()
		}
	})

	done := make(chan ScanCode, 1)
	go func() { done <- d.Scan() }()

	// Give Monitor time to start scanning the port before feeding it lines.
	time.Sleep(20 * time.Millisecond)
	port.AddReadData([]byte(csvRow(1, 10, 1, 2, 3)))
	port.AddReadData([]byte(csvRow(2, 20, 4, 5, 6)))

	select {
	case code := <-done:
		require.Equal(t, ScanOk, code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Scan to return")
	}

	require.Len(t, got, 2)
	require.Equal(t, geom.Point{X: 1, Y: 2, Z: 3}, got[0].Point)
	require.Equal(t, 10, got[0].Reflectivity)
	require.Equal(t, geom.Point{X: 4, Y: 5, Z: 6}, got[1].Point)
}

func TestLidarDevicePauseResumes(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	port.BlockReads = true
	mux := serialmux.NewSerialMux(port)

	d := NewLidarDevice("/dev/mock", serialmux.PortOptions{})
	d.setMux(mux)

	count := 0
	d.SetCallback(func(p geom.LidarPoint) {
		count++
		d.Pause()
	})

	done := make(chan ScanCode, 1)
	go func() { done <- d.Scan() }()

	time.Sleep(20 * time.Millisecond)
	port.AddReadData([]byte(csvRow(1, 1, 1, 1, 1)))

	select {
	case code := <-done:
		require.Equal(t, ScanOk, code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first Scan to pause")
	}
	require.Equal(t, 1, count)

	// Resuming Scan reuses the existing subscription and keeps delivering.
	done = make(chan ScanCode, 1)
	go func() { done <- d.Scan() }()

	time.Sleep(20 * time.Millisecond)
	port.AddReadData([]byte(csvRow(2, 2, 2, 2, 2)))

	select {
	case code := <-done:
		require.Equal(t, ScanOk, code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second Scan to pause")
	}
	require.Equal(t, 2, count)

	d.Stop()
}

func TestLidarDeviceScanWithoutInitErrors(t *testing.T) {
	d := NewLidarDevice("/dev/mock", serialmux.PortOptions{})
	require.Equal(t, ScanError, d.Scan())
}
