package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/gKV/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
	"Binary+S2": func() IRPCSerializer {
		return NewCompressedSerializer(NewBinarySerializer())
	},
}

// testMessages creates a set of test messages with different fields filled.
// Empty-but-non-nil slices are deliberately absent here: json and gob both
// collapse them to nil, and only the binary codec preserves the distinction
// (covered in TestBinarySerializerSpecific).
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTVersion},

		// Set request
		{
			MsgType: common.MsgTSet,
			Name:    "^account",
			Subs:    [][]byte{[]byte("1001"), []byte("balance")},
			Value:   []byte("55.50"),
		},

		// Get response
		{
			MsgType: common.MsgTGet,
			Status:  0,
			Result:  []byte("55.50"),
		},

		// Undefined-node response (soft status, no result)
		{
			MsgType: common.MsgTGet,
			Status:  301,
		},

		// Lock request with a bounded wait
		{
			MsgType:   common.MsgTLock,
			Name:      "^sem",
			Subs:      [][]byte{[]byte("queue")},
			TimeoutNs: 2_500_000_000,
		},

		// Lock request with an unbounded wait
		{
			MsgType:   common.MsgTLock,
			Name:      "^sem",
			TimeoutNs: -1,
		},

		// Reverse traversal response
		{
			MsgType: common.MsgTNode,
			Reverse: true,
			Status:  0,
			Path:    [][]byte{[]byte("1001"), []byte("balance")},
			Result:  []byte("55.50"),
		},

		// Function call
		{
			MsgType: common.MsgTFunction,
			Routine: "version^v4wTest",
			Args:    `6:"1001"2:42`,
			Relink:  true,
		},

		// Directory listing
		{
			MsgType: common.MsgTGlobalDir,
			Max:     100,
			Lo:      "^a",
			Hi:      "^z",
			List:    []string{"^account", "^audit"},
		},

		// Transport error
		{
			MsgType: common.MsgTError,
			Text:    "malformed request",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTData; msgType <= common.MsgTError; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests edge cases only the binary codec is
// required to preserve exactly
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty value record",
			msg: common.Message{
				MsgType: common.MsgTSet,
				Name:    "^x",
				Value:   []byte{},
			},
		},
		{
			name: "Empty subscript list",
			msg: common.Message{
				MsgType: common.MsgTData,
				Name:    "^x",
				Subs:    [][]byte{},
			},
		},
		{
			name: "Subscript records containing empty strings",
			msg: common.Message{
				MsgType: common.MsgTNode,
				Name:    "^x",
				Subs:    [][]byte{[]byte("a"), {}, []byte("b")},
			},
		},
		{
			name: "All bool flags set",
			msg: common.Message{
				MsgType:  common.MsgTKill,
				NodeOnly: true,
				Reverse:  true,
				Relink:   true,
				Ok:       true,
			},
		},
		{
			name: "Negative timeout",
			msg: common.Message{
				MsgType:   common.MsgTLock,
				Name:      "sem",
				TimeoutNs: -1,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Round trip mismatch:\nOriginal: %+v\nResult: %+v", tc.msg, result)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0, 0}, // type byte plus a truncated bitmap
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0, 0, 0}, // message type 1, no flags
			expectError: false,
		},
		{
			name:        "Name length exceeds payload",
			data:        []byte{1, 0, 0, 0, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // claims length 5, carries 3
			expectError: true,
		},
		{
			name:        "Value length with no payload",
			data:        []byte{1, 0, 0, 0, 4, 0, 0, 0, 10}, // claims value length 10, carries none
			expectError: true,
		},
		{
			name:        "Subscript count exceeds payload",
			data:        []byte{1, 0, 0, 0, 2, 0, 0, 1, 0}, // claims 256 records, carries none
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestCompressedRejectsGarbage verifies the s2 wrapper surfaces decode errors
func TestCompressedRejectsGarbage(t *testing.T) {
	s := NewCompressedSerializer(NewBinarySerializer())

	var msg common.Message
	if err := s.Deserialize([]byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb}, &msg); err == nil {
		t.Errorf("Expected error for non-s2 input, got none")
	}
}
