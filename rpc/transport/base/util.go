package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/zeebo/xxh3"
)

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - 8 bytes: xxh3 checksum of the payload (uint64, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, requestID uint64, data []byte) error {
	header := make([]byte, 20)
	binary.BigEndian.PutUint64(header[:8], requestID)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(data)))
	binary.BigEndian.PutUint64(header[12:20], xxh3.Hash(data))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer
// If the buffer is too small, it will allocate a new temporary buffer for the data.
// The payload checksum is verified; a mismatch means the stream is corrupt and
// the connection cannot be trusted any further.
func readFrame(conn net.Conn, buf []byte) (uint64, []byte, error) {
	// Check if buffer is large enough for header
	if buf == nil || len(buf) < 20 {
		buf = make([]byte, 20) // create header buffer
	}

	// Read header
	if _, err := io.ReadFull(conn, buf[:20]); err != nil {
		return 0, nil, err
	}

	// Parse header
	requestID := binary.BigEndian.Uint64(buf[:8])
	contentLength := binary.BigEndian.Uint32(buf[8:12])
	checksum := binary.BigEndian.Uint64(buf[12:20])

	// If no data, verify the empty-payload checksum and return
	if contentLength == 0 {
		if checksum != xxh3.Hash(nil) {
			return 0, nil, fmt.Errorf("checksum mismatch on empty frame %d", requestID)
		}
		return requestID, []byte{}, nil
	}

	// Check if buffer is large enough for data
	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}

	// Read data
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return 0, nil, err
	}

	data := buf[:contentLength]
	if got := xxh3.Hash(data); got != checksum {
		return 0, nil, fmt.Errorf("checksum mismatch on frame %d: header %x, payload %x", requestID, checksum, got)
	}

	return requestID, data, nil
}
