package server

import (
	"testing"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/engine/cedar"
	"github.com/ValentinKolb/gKV/rpc/common"
)

func newTestSession(t *testing.T) engine.Engine {
	t.Helper()
	sess := cedar.New(nil)
	if err := sess.Open(engine.Config{}); err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func subs(vals ...string) [][]byte {
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out
}

func TestAdapterSetGetRoundTrip(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	resp := adapter.Handle(&common.Message{
		MsgType: common.MsgTSet,
		Name:    "^account",
		Subs:    subs("1001", "balance"),
		Value:   []byte("55.50"),
	}, sess)
	if resp.MsgType != common.MsgTSet || resp.Status != 0 {
		t.Fatalf("Set failed: %+v", resp)
	}

	resp = adapter.Handle(&common.Message{
		MsgType: common.MsgTGet,
		Name:    "^account",
		Subs:    subs("1001", "balance"),
	}, sess)
	if resp.Status != 0 {
		t.Fatalf("Get failed: %+v", resp)
	}
	if string(resp.Result) != "55.50" {
		t.Errorf("Expected value 55.50, got %q", resp.Result)
	}
}

func TestAdapterSoftStatusCarriesNoText(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	resp := adapter.Handle(&common.Message{
		MsgType: common.MsgTGet,
		Name:    "^missing",
	}, sess)
	if engine.Status(resp.Status) != engine.StatusUndefined {
		t.Fatalf("Expected status %d, got %d", engine.StatusUndefined, resp.Status)
	}
	if resp.Text != "" {
		t.Errorf("Soft status must not carry error text, got %q", resp.Text)
	}
}

func TestAdapterHardStatusCarriesText(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	resp := adapter.Handle(&common.Message{
		MsgType: common.MsgTGet,
		Name:    "^1bad",
	}, sess)
	if engine.Status(resp.Status) != engine.StatusInvalidName {
		t.Fatalf("Expected status %d, got %d", engine.StatusInvalidName, resp.Status)
	}
	if resp.Text == "" {
		t.Errorf("Hard status must carry error text")
	}
}

func TestAdapterTraversal(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	for _, s := range []string{"1", "2", "3"} {
		resp := adapter.Handle(&common.Message{
			MsgType: common.MsgTSet,
			Name:    "^seq",
			Subs:    subs(s),
			Value:   []byte("v" + s),
		}, sess)
		if resp.Status != 0 {
			t.Fatalf("Set %s failed: %+v", s, resp)
		}
	}

	resp := adapter.Handle(&common.Message{
		MsgType: common.MsgTOrder,
		Name:    "^seq",
		Subs:    subs("1"),
	}, sess)
	if resp.Status != 0 || string(resp.Result) != "2" {
		t.Errorf("Expected next subscript 2, got %q (status %d)", resp.Result, resp.Status)
	}

	resp = adapter.Handle(&common.Message{
		MsgType: common.MsgTNode,
		Name:    "^seq",
		Subs:    subs("3"),
	}, sess)
	if engine.Status(resp.Status) != engine.StatusNodeEnd {
		t.Errorf("Expected node end, got status %d", resp.Status)
	}
}

func TestAdapterLockCycle(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	resp := adapter.Handle(&common.Message{
		MsgType:   common.MsgTLock,
		Name:      "^res",
		TimeoutNs: 0,
	}, sess)
	if resp.Status != 0 || !resp.Ok {
		t.Fatalf("Lock failed: %+v", resp)
	}

	resp = adapter.Handle(&common.Message{MsgType: common.MsgTUnlockAll}, sess)
	if resp.Status != 0 {
		t.Errorf("UnlockAll failed: %+v", resp)
	}
}

func TestAdapterVersion(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTVersion}, sess)
	if resp.Status != 0 || resp.Text == "" {
		t.Errorf("Expected a version string, got %+v", resp)
	}
}

func TestAdapterRejectsUnknownType(t *testing.T) {
	sess := newTestSession(t)
	adapter := NewEngineServerAdapter()

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTUnknown}, sess)
	if resp.MsgType != common.MsgTError {
		t.Errorf("Expected error response, got %+v", resp)
	}
	if resp.Text == "" {
		t.Errorf("Error response must carry text")
	}
}
