package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponses(t *testing.T) {
	tcases := []struct {
		name     string
		msg      *ServerMessage
		wantCode int
		wantErr  string
	}{
		{name: "ok", msg: NoErrOK(1), wantCode: http.StatusOK},
		{name: "invalid message", msg: ErrInvalidMessage(1), wantCode: http.StatusBadRequest, wantErr: "invalid message format"},
		{name: "unknown message type", msg: ErrUnknownMessageType(1), wantCode: http.StatusNotFound, wantErr: "unknown message type"},
		{name: "service unavailable", msg: ErrServiceUnavailable(1), wantCode: http.StatusServiceUnavailable, wantErr: "service unavailable"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, MsgResponse, tc.msg.Type)
			assert.Equal(t, 1, tc.msg.Id)
			require.NotNil(t, tc.msg.Response)
			assert.Equal(t, tc.wantCode, tc.msg.Response.ResponseCode)
			assert.Equal(t, tc.wantErr, tc.msg.Response.Error)
			assert.WithinDuration(t, time.Now(), tc.msg.Timestamp, time.Second)
		})
	}

	assert.Zero(t, ErrInvalidMessage(0).Id, "expected no id for messages that could not be parsed")
}

func TestServerMessage_JSON(t *testing.T) {
	msg := newMessage(MsgStartQuiz, startQuizPayload{QuestionNumber: 2, DurationMs: 10000})

	bytes, err := json.Marshal(msg)
	require.NoError(t, err)

	expected := `{"timestamp":"` + msg.Timestamp.Format(time.RFC3339Nano) +
		`","type":"start_quiz","payload":{"questionNumber":2,"durationMs":10000}}`
	assert.Equal(t, expected, string(bytes))
}

func TestClientMessage_JSON(t *testing.T) {
	var msg ClientMessage
	err := json.Unmarshal([]byte(`{"id":4,"type":"update_player_name","payload":{"name":"bob"}}`), &msg)
	require.NoError(t, err)

	assert.Equal(t, 4, msg.Id)
	assert.Equal(t, MsgUpdatePlayerName, msg.Type)
	assert.JSONEq(t, `{"name":"bob"}`, string(msg.Payload))
}
