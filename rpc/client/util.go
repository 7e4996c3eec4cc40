package client

import (
	"fmt"

	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/serializer"
	"github.com/ValentinKolb/gKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invokeRPCRequest sends one request message and returns the decoded
// response. It checks for transport-level error responses and for a response
// type that does not match the request.
func invokeRPCRequest(req *common.Message, tp transport.IRPCClientTransport, ser serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := ser.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := tp.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := ser.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %s", err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError {
		return nil, fmt.Errorf("server rejected request: %s", resp.Text)
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
