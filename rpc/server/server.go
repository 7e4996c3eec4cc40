package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/engine/cedar"
	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/serializer"
	"github.com/ValentinKolb/gKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new engine server. It takes an environment, a
// config, a transport and a serializer as parameters. A nil environment
// creates a fresh one whose default directory is taken from the config;
// passing an environment lets the caller register routines beforehand.
//
// Usage:
//
//	s := server.NewRPCServer(
//		nil,
//		config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	env *cedar.Environment,
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	if env == nil {
		env = cedar.NewEnvironment(&cedar.Options{
			DefaultDirectory: config.GlobalDirectory,
		})
	}

	Logger.Infof("Created engine server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		env:        env,
		adapter:    NewEngineServerAdapter(),
		sessions:   xsync.NewMapOf[uint64, engine.Engine](),
	}
}

// RPCServer serves one cedar environment over a server transport. Every
// client connection gets its own engine session; the sessions share globals,
// locks and routines through the environment.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	env        *cedar.Environment
	adapter    IRPCServerAdapter
	sessions   *xsync.MapOf[uint64, engine.Engine]
}

// Environment returns the served environment, e.g. for routine registration.
func (s *RPCServer) Environment() *cedar.Environment {
	return s.env
}

// Serve starts the server: it wires the session hooks and the request
// handler into the transport and blocks in the transport's accept loop.
func (s *RPCServer) Serve() error {
	s.registerTransportHandler()
	return s.transport.Listen(s.config)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) registerTransportHandler() {
	hooks := transport.SessionHooks{
		OnOpen: func(sessionID uint64) {
			sess := s.env.NewSession()
			if err := sess.Open(engine.Config{GlobalDirectory: s.config.GlobalDirectory}); err != nil {
				Logger.Errorf("Failed to open session %d: %v", sessionID, err)
				return
			}
			s.sessions.Store(sessionID, sess)
			metrics.GetOrCreateCounter(`gkv_server_sessions_total`).Inc()
		},
		OnClose: func(sessionID uint64) {
			if sess, ok := s.sessions.LoadAndDelete(sessionID); ok {
				// Close releases every lock the session still holds and
				// discards its locals
				if err := sess.Close(); err != nil {
					Logger.Errorf("Failed to close session %d: %v", sessionID, err)
				}
			}
		},
	}

	s.transport.RegisterHandler(func(sessionID uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Get the session of this connection
		sess, ok := s.sessions.Load(sessionID)

		// Case session does not exist -> error (its Open failed)
		if !ok {
			respMsg = *common.NewErrorResponse("session not found")
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = *common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			metrics.GetOrCreateCounter(
				fmt.Sprintf(`gkv_server_requests_total{type=%q}`, msg.MsgType.String()),
			).Inc()

			// Let the adapter handle the request
			respMsg = *s.adapter.Handle(&msg, sess)
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("Failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse("failed to serialize response"))
		}
		return val
	}, hooks)
}
