package serializer

import (
	"fmt"

	"github.com/ValentinKolb/gKV/rpc/common"
)

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}

// GetSerializer returns the serializer registered under the given name
// (binary, json, gob). With compression enabled the serializer's output is
// additionally s2-compressed; client and server must agree on both settings.
func GetSerializer(name string, compression bool) (IRPCSerializer, error) {
	var s IRPCSerializer
	switch name {
	case "binary":
		s = NewBinarySerializer()
	case "json":
		s = NewJSONSerializer()
	case "gob":
		s = NewGOBSerializer()
	default:
		return nil, fmt.Errorf("unknown serializer: %s (must be one of binary, json, gob)", name)
	}
	if compression {
		s = NewCompressedSerializer(s)
	}
	return s, nil
}
