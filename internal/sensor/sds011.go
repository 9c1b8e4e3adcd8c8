package sensor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// SDS011 drives a Nova SDS011 particulate sensor over its serial protocol
// (9600 8N1). Commands are 19-byte 0xAA 0xB4 frames; the sensor answers
// with checksummed 10-byte frames.
type SDS011 struct {
	port io.ReadWriteCloser
}

const (
	frameHead  = 0xAA
	frameTail  = 0xAB
	cmdID      = 0xB4
	queryReply = 0xC0
	setReply   = 0xC5

	cmdQuery     = 4
	cmdWorkState = 6

	workSleep = 0
	workWake  = 1
)

var errBadFrame = errors.New("malformed response frame")

// OpenSDS011 opens the sensor on the given serial device (e.g. /dev/ttyUSB0).
func OpenSDS011(device string, timeout time.Duration) (*SDS011, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &SDS011{port: port}, nil
}

func (s *SDS011) Wake() error {
	_, err := s.exec(cmdWorkState, 1, workWake, setReply)
	return err
}

func (s *SDS011) Sleep() error {
	_, err := s.exec(cmdWorkState, 1, workSleep, setReply)
	return err
}

func (s *SDS011) Query() (pm25, pm10 float64, err error) {
	resp, err := s.exec(cmdQuery, 0, 0, queryReply)
	if err != nil {
		return 0, 0, err
	}
	// Data bytes are little-endian tenths of µg/m³.
	pm25 = float64(uint16(resp[1])|uint16(resp[2])<<8) / 10
	pm10 = float64(uint16(resp[3])|uint16(resp[4])<<8) / 10
	return pm25, pm10, nil
}

func (s *SDS011) Close() error { return s.port.Close() }

// exec writes one command frame and reads frames until it sees the expected
// reply type. The sensor streams unsolicited measurement frames in active
// mode, so unrelated frames are skipped.
func (s *SDS011) exec(cmd, d1, d2 byte, reply byte) ([]byte, error) {
	frame := buildCommand(cmd, d1, d2)
	if _, err := s.port.Write(frame); err != nil {
		return nil, fmt.Errorf("write command %#x: %w", cmd, err)
	}
	for attempts := 0; attempts < 8; attempts++ {
		resp, err := s.readFrame()
		if err != nil {
			return nil, err
		}
		if resp[0] == reply {
			return resp, nil
		}
	}
	return nil, fmt.Errorf("no %#x reply for command %#x", reply, cmd)
}

// buildCommand assembles the 19-byte command frame:
// AA B4 cmd d1 d2 0*10 FF FF checksum AB, where FF FF addresses all
// sensors and the checksum is the low byte of the sum of bytes 2..16.
func buildCommand(cmd, d1, d2 byte) []byte {
	frame := make([]byte, 19)
	frame[0] = frameHead
	frame[1] = cmdID
	frame[2] = cmd
	frame[3] = d1
	frame[4] = d2
	frame[15] = 0xFF
	frame[16] = 0xFF
	var sum byte
	for _, b := range frame[2:17] {
		sum += b
	}
	frame[17] = sum
	frame[18] = frameTail
	return frame
}

// readFrame reads one 10-byte response frame, resynchronizing on the head
// byte, and returns bytes 1..8 (reply type + six data bytes + checksum is
// verified here, head/tail stripped).
func (s *SDS011) readFrame() ([]byte, error) {
	buf := make([]byte, 10)

	// Hunt for the head byte so a partial frame on the wire doesn't wedge
	// every later read.
	one := buf[:1]
	for {
		n, err := s.port.Read(one)
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("read frame: %w", ErrTimeout)
		}
		if one[0] == frameHead {
			break
		}
	}

	for off := 1; off < 10; {
		n, err := s.port.Read(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("read frame: %w", ErrTimeout)
		}
		off += n
	}

	if buf[9] != frameTail {
		return nil, errBadFrame
	}
	var sum byte
	for _, b := range buf[2:8] {
		sum += b
	}
	if sum != buf[8] {
		return nil, fmt.Errorf("%w: bad checksum", errBadFrame)
	}
	return buf[1:9], nil
}

// ErrTimeout reports that the sensor produced no bytes within the port's
// read timeout.
var ErrTimeout = errors.New("sensor read timed out")
