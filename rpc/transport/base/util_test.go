package base

import (
	"bytes"
	"net"
	"strings"
	"testing"
)

// pipeFrame writes a frame on one end of a pipe and reads it back on the
// other, optionally corrupting the raw bytes in between
func pipeFrame(t *testing.T, requestID uint64, payload []byte, corrupt func([]byte)) (uint64, []byte, error) {
	t.Helper()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- writeFrame(client, requestID, payload)
	}()

	if corrupt == nil {
		id, data, err := readFrame(server, nil)
		if werr := <-errCh; werr != nil {
			t.Fatalf("writeFrame failed: %v", werr)
		}
		return id, data, err
	}

	// Capture the raw frame, corrupt it, replay it through a fresh pipe
	raw := make([]byte, 20+len(payload))
	if _, err := readFull(server, raw); err != nil {
		t.Fatalf("failed to capture frame: %v", err)
	}
	if werr := <-errCh; werr != nil {
		t.Fatalf("writeFrame failed: %v", werr)
	}
	corrupt(raw)

	c2, s2 := net.Pipe()
	defer c2.Close()
	defer s2.Close()
	go func() {
		c2.Write(raw)
	}()
	return readFrame(s2, nil)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte("6:\"1001\"2:42")
	id, data, err := pipeFrame(t, 7, payload, nil)
	if err != nil {
		t.Fatalf("readFrame failed: %v", err)
	}
	if id != 7 {
		t.Errorf("Expected request ID 7, got %d", id)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Payload mismatch: got %q", data)
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	id, data, err := pipeFrame(t, 3, nil, nil)
	if err != nil {
		t.Fatalf("readFrame failed: %v", err)
	}
	if id != 3 {
		t.Errorf("Expected request ID 3, got %d", id)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty payload, got %q", data)
	}
}

func TestFrameDetectsCorruption(t *testing.T) {
	payload := []byte("some payload that will be flipped")

	_, _, err := pipeFrame(t, 9, payload, func(raw []byte) {
		raw[len(raw)-1] ^= 0xff // flip a payload byte
	})
	if err == nil {
		t.Fatalf("Expected checksum error, got none")
	}
	if !strings.Contains(err.Error(), "checksum") {
		t.Errorf("Expected checksum error, got: %v", err)
	}
}

func TestFrameDetectsHeaderCorruption(t *testing.T) {
	payload := []byte("payload")

	_, _, err := pipeFrame(t, 9, payload, func(raw []byte) {
		raw[15] ^= 0xff // flip a checksum byte
	})
	if err == nil {
		t.Fatalf("Expected checksum error, got none")
	}
}
