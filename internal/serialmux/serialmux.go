// Serialmux provides an abstraction over a serial port with the ability for
// multiple clients to subscribe to events from the serial port and send
// commands to a single serial port device.
package serialmux

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// SerialMux is a generic serial port multiplexer that allows multiple clients to
// subscribe to events from a single serial port.
type SerialMux[T SerialPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// SerialMuxInterface defines the interface for the SerialMux type.
type SerialMuxInterface interface {
	// Subscribe creates a new channel for receiving line events from the serial
	// port. The channel ID is used to identify the unique channel when
	// unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the serial port.
	SendCommand(string) error
	// Monitor reads lines from the serial port and sends them to the
	// appropriate channels.
	Monitor(context.Context) error
	// Close closes all subscribed channels and closes the serial port.
	Close() error

	Initialize() error
}

// NewSerialMux creates a SerialMux instance wrapping the given port.
func NewSerialMux[T SerialPorter](port T) *SerialMux[T] {
	return &SerialMux[T]{
		port:         port,
		subscribers:  make(map[string]chan string),
		subscriberMu: sync.Mutex{},
		commandMu:    sync.Mutex{},
	}
}

// randomID generates a random channel ID.
func randomID() string {
	return uuid.NewString()
}

func (s *SerialMux[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the serial mux.
func (s *SerialMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Initialize syncs the device clock to the current UNIX time, then sends the
// IMU=OFF, COORD=CARTESIAN and SAMPLE=START commands so that the output can be
// parsed.
func (s *SerialMux[T]) Initialize() error {
	// sync the clock to the current UNIX time
	command := fmt.Sprintf("C=%d", time.Now().Unix())
	if err := s.SendCommand(command); err != nil {
		return fmt.Errorf("failed to synchronize clock: %w", err)
	}

	for _, command := range []string{
		"IMU=OFF",        // renounce IMU point delivery, points only
		"COORD=CARTESIAN", // request cartesian (not spherical) point output
		"SAMPLE=START",    // begin point sampling
	} {
		if err := s.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}

	return nil
}

// SendCommand sends a command to the serial port.
func (s *SerialMux[T]) SendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n" // ensure command ends with a newline
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor monitors the serial port for events and sends them to subscribers
func (s *SerialMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// start a goroutine to read from the serial port & send any lines that are scanned to linesChan.
	// and any errors to the scanErrChan
	//
	// the blocking scan.Scan will not interfere with our outer loop awaiting
	// lines & context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		// check if the context is done
		// and exit the loop if so
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			// if the channel is closed, we're done reading from the serial port
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}
			// Check if we're closing
			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			// otherwise lock the subscriber map
			s.subscriberMu.Lock()
			for _, ch := range s.subscribers {
				select {
				case ch <- line:
				default:
					// if the channel is full/blocking skip so as not to block the outer loop
				}
			}
			s.subscriberMu.Unlock()
		}
	}
}

func (s *SerialMux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}

