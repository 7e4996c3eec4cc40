package server

import (
	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request against one engine session and returns a
	// response. The caller guarantees that no two requests of the same
	// session are handled concurrently (the engine session is
	// singly-reentrant). If an error occurs, it is encoded in the response.
	Handle(req *common.Message, sess engine.Engine) (resp *common.Message)
}
