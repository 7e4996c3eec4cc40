package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single wire message used for both requests and
// responses. Which fields are used depends on the type of message; every
// engine entry point maps onto one request/response pair.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields

	Name    string   `json:"name,omitempty"`    // normalized variable name
	Subs    [][]byte `json:"subs,omitempty"`    // subscript records
	Value   []byte   `json:"value,omitempty"`   // Set value / Increment delta
	DstName string   `json:"dstName,omitempty"` // Merge destination
	DstSubs [][]byte `json:"dstSubs,omitempty"` // Merge destination subscripts

	NodeOnly bool `json:"nodeOnly,omitempty"` // Kill: keep descendants
	Reverse  bool `json:"reverse,omitempty"`  // Order/Node: iterate backwards
	Relink   bool `json:"relink,omitempty"`   // Function/Procedure: relink routines

	TimeoutNs int64  `json:"timeoutNs,omitempty"` // Lock wait bound (<0 = unbounded)
	Routine   string `json:"routine,omitempty"`   // Function/Procedure target
	Args      string `json:"args,omitempty"`      // call-in token stream
	Max       uint64 `json:"max,omitempty"`       // directory listing cap
	Lo        string `json:"lo,omitempty"`        // directory range bounds
	Hi        string `json:"hi,omitempty"`

	// Response fields

	Status int32    `json:"status,omitempty"` // engine status of the call
	Data   int32    `json:"data,omitempty"`   // Data result
	Result []byte   `json:"result,omitempty"` // Get/Order/Increment/Function result
	Path   [][]byte `json:"path,omitempty"`   // Node result
	List   []string `json:"list,omitempty"`   // directory listing result
	Ok     bool     `json:"ok,omitempty"`     // Lock: resource acquired
	Text   string   `json:"text,omitempty"`   // Version / error text

	// Meta information, unused, reserved for additional adapters
	Meta []byte `json:"meta,omitempty"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a request message addressing one node.
func NewRequest(t MessageType, name string, subs [][]byte) *Message {
	return &Message{MsgType: t, Name: name, Subs: subs}
}

// NewStatusResponse creates a response carrying only an engine status.
func NewStatusResponse(t MessageType, status int32) *Message {
	return &Message{MsgType: t, Status: status}
}

// NewResultResponse creates a response carrying a status and a result record.
func NewResultResponse(t MessageType, status int32, result []byte) *Message {
	return &Message{MsgType: t, Status: status, Result: result}
}

// NewErrorResponse creates a transport-level error response. Engine statuses
// travel in Status; this type is reserved for malformed or unroutable
// requests.
func NewErrorResponse(err string) *Message {
	return &Message{MsgType: MsgTError, Text: err}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTData:
		return "data"
	case MsgTGet:
		return "get"
	case MsgTSet:
		return "set"
	case MsgTKill:
		return "kill"
	case MsgTOrder:
		return "order"
	case MsgTNode:
		return "node"
	case MsgTIncrement:
		return "increment"
	case MsgTLock:
		return "lock"
	case MsgTUnlock:
		return "unlock"
	case MsgTUnlockAll:
		return "unlockAll"
	case MsgTMerge:
		return "merge"
	case MsgTFunction:
		return "function"
	case MsgTProcedure:
		return "procedure"
	case MsgTGlobalDir:
		return "globalDir"
	case MsgTLocalDir:
		return "localDir"
	case MsgTIntrinsicGet:
		return "intrinsicGet"
	case MsgTIntrinsicSet:
		return "intrinsicSet"
	case MsgTVersion:
		return "version"
	case MsgTErrorText:
		return "errorText"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for mt := MsgTUnknown; mt <= MsgTError; mt++ {
		if mt.String() == s {
			*t = mt
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota

	// Node operations

	MsgTData
	MsgTGet
	MsgTSet
	MsgTKill
	MsgTOrder
	MsgTNode
	MsgTIncrement
	MsgTMerge

	// Locks

	MsgTLock
	MsgTUnlock
	MsgTUnlockAll

	// Routines

	MsgTFunction
	MsgTProcedure

	// Directories and intrinsics

	MsgTGlobalDir
	MsgTLocalDir
	MsgTIntrinsicGet
	MsgTIntrinsicSet

	// Meta

	MsgTVersion
	MsgTErrorText
	MsgTError // transport-level failure
)
