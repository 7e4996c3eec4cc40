package serializer

import (
	"fmt"

	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/klauspost/compress/s2"
)

// NewCompressedSerializer wraps another serializer and s2-compresses its
// output. Node values dominate the wire volume and are often repetitive
// text, which s2 handles well at near-memcpy speed.
func NewCompressedSerializer(inner IRPCSerializer) IRPCSerializer {
	return &compressedSerializerImpl{inner: inner}
}

// compressedSerializerImpl implements IRPCSerializer by delegating to an
// inner serializer and compressing the resulting bytes.
type compressedSerializerImpl struct {
	inner IRPCSerializer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (c compressedSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	raw, err := c.inner.Serialize(msg)
	if err != nil {
		return nil, err
	}
	return s2.Encode(nil, raw), nil
}

func (c compressedSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	raw, err := s2.Decode(nil, b)
	if err != nil {
		return fmt.Errorf("failed to decompress message: %w", err)
	}
	return c.inner.Deserialize(raw, msg)
}
