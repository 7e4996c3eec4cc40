package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/gKV/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary
// format: one type byte, a 32-bit presence bitmap, then the present fields
// in a fixed order.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasName uint32 = 1 << iota
	hasSubs
	hasValue
	hasDstName
	hasDstSubs
	hasBools // NodeOnly/Reverse/Relink/Ok packed in one byte
	hasTimeout
	hasRoutine
	hasArgs
	hasRange // Max/Lo/Hi
	hasStatus
	hasData
	hasResult
	hasPath
	hasList
	hasText
	hasMeta
)

// packed bool bit positions
const (
	boolNodeOnly byte = 1 << iota
	boolReverse
	boolRelink
	boolOk
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var flags uint32
	bools := byte(0)
	if msg.NodeOnly {
		bools |= boolNodeOnly
	}
	if msg.Reverse {
		bools |= boolReverse
	}
	if msg.Relink {
		bools |= boolRelink
	}
	if msg.Ok {
		bools |= boolOk
	}

	// header: type byte + bitmap, patched after the fields decide the flags
	out := make([]byte, 5, 64)
	out[0] = byte(msg.MsgType)

	if msg.Name != "" {
		flags |= hasName
		out = appendString(out, msg.Name)
	}
	if msg.Subs != nil {
		flags |= hasSubs
		out = appendRecords(out, msg.Subs)
	}
	if msg.Value != nil {
		flags |= hasValue
		out = appendBytes(out, msg.Value)
	}
	if msg.DstName != "" {
		flags |= hasDstName
		out = appendString(out, msg.DstName)
	}
	if msg.DstSubs != nil {
		flags |= hasDstSubs
		out = appendRecords(out, msg.DstSubs)
	}
	if bools != 0 {
		flags |= hasBools
		out = append(out, bools)
	}
	if msg.TimeoutNs != 0 {
		flags |= hasTimeout
		out = binary.BigEndian.AppendUint64(out, uint64(msg.TimeoutNs))
	}
	if msg.Routine != "" {
		flags |= hasRoutine
		out = appendString(out, msg.Routine)
	}
	if msg.Args != "" {
		flags |= hasArgs
		out = appendString(out, msg.Args)
	}
	if msg.Max != 0 || msg.Lo != "" || msg.Hi != "" {
		flags |= hasRange
		out = binary.BigEndian.AppendUint64(out, msg.Max)
		out = appendString(out, msg.Lo)
		out = appendString(out, msg.Hi)
	}
	if msg.Status != 0 {
		flags |= hasStatus
		out = binary.BigEndian.AppendUint32(out, uint32(msg.Status))
	}
	if msg.Data != 0 {
		flags |= hasData
		out = binary.BigEndian.AppendUint32(out, uint32(msg.Data))
	}
	if msg.Result != nil {
		flags |= hasResult
		out = appendBytes(out, msg.Result)
	}
	if msg.Path != nil {
		flags |= hasPath
		out = appendRecords(out, msg.Path)
	}
	if msg.List != nil {
		flags |= hasList
		out = binary.BigEndian.AppendUint32(out, uint32(len(msg.List)))
		for _, s := range msg.List {
			out = appendString(out, s)
		}
	}
	if msg.Text != "" {
		flags |= hasText
		out = appendString(out, msg.Text)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		out = appendBytes(out, msg.Meta)
	}

	binary.BigEndian.PutUint32(out[1:5], flags)
	return out, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 5 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := binary.BigEndian.Uint32(data[1:5])
	r := reader{data: data, pos: 5}

	if flags&hasName != 0 {
		msg.Name = r.readString()
	}
	if flags&hasSubs != 0 {
		msg.Subs = r.readRecords()
	}
	if flags&hasValue != 0 {
		msg.Value = r.readBytes()
	}
	if flags&hasDstName != 0 {
		msg.DstName = r.readString()
	}
	if flags&hasDstSubs != 0 {
		msg.DstSubs = r.readRecords()
	}
	if flags&hasBools != 0 {
		bools := r.readByte()
		msg.NodeOnly = bools&boolNodeOnly != 0
		msg.Reverse = bools&boolReverse != 0
		msg.Relink = bools&boolRelink != 0
		msg.Ok = bools&boolOk != 0
	}
	if flags&hasTimeout != 0 {
		msg.TimeoutNs = int64(r.readUint64())
	}
	if flags&hasRoutine != 0 {
		msg.Routine = r.readString()
	}
	if flags&hasArgs != 0 {
		msg.Args = r.readString()
	}
	if flags&hasRange != 0 {
		msg.Max = r.readUint64()
		msg.Lo = r.readString()
		msg.Hi = r.readString()
	}
	if flags&hasStatus != 0 {
		msg.Status = int32(r.readUint32())
	}
	if flags&hasData != 0 {
		msg.Data = int32(r.readUint32())
	}
	if flags&hasResult != 0 {
		msg.Result = r.readBytes()
	}
	if flags&hasPath != 0 {
		msg.Path = r.readRecords()
	}
	if flags&hasList != 0 {
		n := int(r.readUint32())
		if r.err == nil && n >= 0 && n <= len(r.data) {
			msg.List = make([]string, 0, n)
			for i := 0; i < n; i++ {
				msg.List = append(msg.List, r.readString())
			}
		} else if r.err == nil {
			r.err = fmt.Errorf("implausible list length %d", n)
		}
	}
	if flags&hasText != 0 {
		msg.Text = r.readString()
	}
	if flags&hasMeta != 0 {
		msg.Meta = r.readBytes()
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func appendString(out []byte, s string) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}

func appendBytes(out []byte, b []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(b)))
	return append(out, b...)
}

func appendRecords(out []byte, recs [][]byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(recs)))
	for _, rec := range recs {
		out = appendBytes(out, rec)
	}
	return out
}

// reader is a bounds-checked sequential decoder. The first failure sticks;
// every later read returns the zero value.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("data too short for %s at offset %d", what, r.pos)
	}
}

func (r *reader) readByte() byte {
	if r.err != nil || r.pos+1 > len(r.data) {
		r.fail("byte")
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *reader) readUint32() uint32 {
	if r.err != nil || r.pos+4 > len(r.data) {
		r.fail("uint32")
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *reader) readUint64() uint64 {
	if r.err != nil || r.pos+8 > len(r.data) {
		r.fail("uint64")
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *reader) readBytes() []byte {
	n := int(r.readUint32())
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.fail("bytes")
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out
}

func (r *reader) readString() string {
	return string(r.readBytes())
}

func (r *reader) readRecords() [][]byte {
	n := int(r.readUint32())
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data) {
		r.fail("record count")
		return nil
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.readBytes())
	}
	return out
}
