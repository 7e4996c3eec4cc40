package serializer

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/gKV/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTVersion,
		},
		"NameOnly": {
			MsgType: common.MsgTGet,
			Name:    "^account",
		},
		"DeepPath": {
			MsgType: common.MsgTGet,
			Name:    "^account",
			Subs: [][]byte{
				[]byte("1001"), []byte("orders"), []byte("2025"),
				[]byte("08"), []byte("24"), []byte("17"), []byte("item"),
			},
		},
		"SmallValue": {
			MsgType: common.MsgTSet,
			Name:    "^account",
			Subs:    [][]byte{[]byte("1001")},
			Value:   []byte("v"),
		},
		"LargeValue": {
			MsgType: common.MsgTSet,
			Name:    "^blob",
			Subs:    [][]byte{[]byte("1")},
			Value:   make([]byte, 1024), // 1KB of data
		},
		"VeryLargeValue": {
			MsgType: common.MsgTSet,
			Name:    "^blob",
			Subs:    [][]byte{[]byte("1")},
			Value:   bytes.Repeat([]byte("lorem ipsum "), 1400), // ~16KB, compressible
		},
		"TraversalResponse": {
			MsgType: common.MsgTNode,
			Status:  0,
			Path:    [][]byte{[]byte("1001"), []byte("orders"), []byte("17")},
			Result:  []byte("pending"),
		},
		"DirectoryListing": {
			MsgType: common.MsgTGlobalDir,
			List:    []string{"^account", "^audit", "^blob", "^orders", "^session"},
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Text:    "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
