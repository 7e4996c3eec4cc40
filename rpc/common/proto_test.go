package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTypeStringRoundTrip(t *testing.T) {
	for mt := MsgTData; mt <= MsgTError; mt++ {
		data, err := json.Marshal(mt)
		require.NoError(t, err, "marshal %v", mt)

		var back MessageType
		require.NoError(t, json.Unmarshal(data, &back), "unmarshal %s", data)
		assert.Equal(t, mt, back)
	}
}

func TestMessageTypeRejectsUnknown(t *testing.T) {
	var mt MessageType
	err := json.Unmarshal([]byte(`"bogus"`), &mt)
	assert.Error(t, err)
}

func TestFactories(t *testing.T) {
	req := NewRequest(MsgTSet, "^account", [][]byte{[]byte("1001")})
	assert.Equal(t, MsgTSet, req.MsgType)
	assert.Equal(t, "^account", req.Name)
	require.Len(t, req.Subs, 1)

	resp := NewResultResponse(MsgTGet, 0, []byte("55.50"))
	assert.Equal(t, MsgTGet, resp.MsgType)
	assert.Equal(t, []byte("55.50"), resp.Result)

	errResp := NewErrorResponse("malformed request")
	assert.Equal(t, MsgTError, errResp.MsgType)
	assert.Equal(t, "malformed request", errResp.Text)
}
