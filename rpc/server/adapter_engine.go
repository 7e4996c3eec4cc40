package server

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/rpc/common"
)

// NewEngineServerAdapter creates the adapter that maps wire messages onto
// engine entry points.
func NewEngineServerAdapter() IRPCServerAdapter {
	return &engineServerAdapterImpl{}
}

type engineServerAdapterImpl struct{}

func (adapter *engineServerAdapterImpl) Handle(req *common.Message, sess engine.Engine) *common.Message {
	// Check for nil session
	if sess == nil {
		return common.NewErrorResponse("handler: session is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTData:
		d, st := sess.Data(req.Name, req.Subs)
		resp := respond(req.MsgType, st, sess)
		resp.Data = int32(d)
		return resp

	case common.MsgTGet:
		val, st := sess.Get(req.Name, req.Subs)
		resp := respond(req.MsgType, st, sess)
		resp.Result = val
		return resp

	case common.MsgTSet:
		st := sess.Set(req.Name, req.Subs, req.Value)
		return respond(req.MsgType, st, sess)

	case common.MsgTKill:
		st := sess.Kill(req.Name, req.Subs, req.NodeOnly)
		return respond(req.MsgType, st, sess)

	case common.MsgTOrder:
		next, st := sess.Order(req.Name, req.Subs, req.Reverse)
		resp := respond(req.MsgType, st, sess)
		resp.Result = next
		return resp

	case common.MsgTNode:
		path, st := sess.Node(req.Name, req.Subs, req.Reverse)
		resp := respond(req.MsgType, st, sess)
		resp.Path = path
		return resp

	case common.MsgTIncrement:
		val, st := sess.Increment(req.Name, req.Subs, req.Value)
		resp := respond(req.MsgType, st, sess)
		resp.Result = val
		return resp

	case common.MsgTMerge:
		st := sess.Merge(req.Name, req.Subs, req.DstName, req.DstSubs)
		return respond(req.MsgType, st, sess)

	case common.MsgTLock:
		ok, st := sess.Lock(req.Name, req.Subs, time.Duration(req.TimeoutNs))
		resp := respond(req.MsgType, st, sess)
		resp.Ok = ok
		return resp

	case common.MsgTUnlock:
		st := sess.Unlock(req.Name, req.Subs)
		return respond(req.MsgType, st, sess)

	case common.MsgTUnlockAll:
		st := sess.UnlockAll()
		return respond(req.MsgType, st, sess)

	case common.MsgTFunction:
		val, st := sess.Function(req.Routine, req.Args, req.Relink)
		resp := respond(req.MsgType, st, sess)
		resp.Result = val
		return resp

	case common.MsgTProcedure:
		st := sess.Procedure(req.Routine, req.Args, req.Relink)
		return respond(req.MsgType, st, sess)

	case common.MsgTGlobalDir:
		list, st := sess.GlobalDirectory(req.Max, req.Lo, req.Hi)
		resp := respond(req.MsgType, st, sess)
		resp.List = list
		return resp

	case common.MsgTLocalDir:
		list, st := sess.LocalDirectory(req.Max, req.Lo, req.Hi)
		resp := respond(req.MsgType, st, sess)
		resp.List = list
		return resp

	case common.MsgTIntrinsicGet:
		val, st := sess.IntrinsicGet(req.Name)
		resp := respond(req.MsgType, st, sess)
		if st == engine.StatusOK {
			resp.Result = []byte(val)
		}
		return resp

	case common.MsgTIntrinsicSet:
		st := sess.IntrinsicSet(req.Name, string(req.Value))
		return respond(req.MsgType, st, sess)

	case common.MsgTVersion:
		resp := common.NewStatusResponse(req.MsgType, int32(engine.StatusOK))
		resp.Text = sess.Version()
		return resp

	case common.MsgTErrorText:
		resp := common.NewStatusResponse(req.MsgType, int32(engine.StatusOK))
		resp.Text = sess.ErrorText(engine.Status(req.Status))
		return resp

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("unsupported message type: %s", req.MsgType),
		)
	}
}

// respond builds the baseline response for a status. Hard statuses carry
// their error text with them so the client does not need an extra round trip.
func respond(t common.MessageType, st engine.Status, sess engine.Engine) *common.Message {
	resp := common.NewStatusResponse(t, int32(st))
	if st != engine.StatusOK && !st.Soft() {
		resp.Text = sess.ErrorText(st)
	}
	return resp
}
