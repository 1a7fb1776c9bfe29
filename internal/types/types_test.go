package types

import (
	"encoding/json"
	"testing"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/DoyleJ11/card-arena-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientMessage(t *testing.T) {
	cm, err := ParseClientMessage([]byte(`{"type":"ChooseCard","player_id":2,"pk":"abc","turn_id":4,"card_number":7,"location":1}`))
	require.NoError(t, err)
	assert.Equal(t, ClientMessage{Type: MsgChooseCard, PlayerID: 2, PrivateKey: "abc", TurnID: 4, CardNumber: 7, Location: 1}, cm)

	_, err = ParseClientMessage([]byte(`{"type":`))
	assert.ErrorIs(t, err, ErrBadJSON)

	_, err = ParseClientMessage([]byte(`{"type":"LockPick"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestClientMessage_Command(t *testing.T) {
	out := session.NewOutbox(1)

	cmd, ok := ClientMessage{Type: MsgChooseCard, PlayerID: 1, PrivateKey: "k", TurnID: 2, CardNumber: 3, Location: 4}.Command(out)
	require.True(t, ok)
	assert.Equal(t, session.SubmitMove{ParticipantID: 1, PrivateKey: "k", Turn: 2, Card: 3, Location: 4, From: out}, cmd)

	cmd, ok = ClientMessage{Type: MsgAnimationsDone, PlayerID: 1, PrivateKey: "k", TurnID: 2}.Command(out)
	require.True(t, ok)
	assert.Equal(t, session.AnimationDone{ParticipantID: 1, PrivateKey: "k", Turn: 2, From: out}, cmd)

	cmd, ok = ClientMessage{Type: MsgVoteDeath, PlayerID: 1, TargetID: 5, PrivateKey: "k", TurnID: 2}.Command(out)
	require.True(t, ok)
	assert.Equal(t, session.VoteDeath{VoterID: 1, TargetID: 5, PrivateKey: "k", Turn: 2, From: out}, cmd)

	_, ok = ClientMessage{Type: MsgInitiateGame}.Command(out)
	assert.False(t, ok)
}

func TestEncodeNotice(t *testing.T) {
	p := engine.Participant{
		ID:         1,
		SessionID:  "g1",
		Username:   "alice",
		PrivateKey: "secretkey1",
		Character:  2,
		Position:   engine.Position{X: 3, Y: 4, Facing: 1},
		Active:     true,
	}

	cases := []struct {
		name   string
		notice session.Notice
		want   string
	}{
		{
			name:   "seated carries the key",
			notice: session.Seated{Participant: p},
			want:   `{"type":"Player","id":1,"private_key":"secretkey1","username":"alice","character_type":2,"pos_x":3,"pos_y":4,"pos_orientation":1,"is_ai":false,"active":true,"game_id":"g1"}`,
		},
		{
			name:   "joined hides the key",
			notice: session.Joined{Participant: p.Public()},
			want:   `{"type":"PlayerJoined","id":1,"username":"alice","character_type":2,"pos_x":3,"pos_y":4,"pos_orientation":1,"is_ai":false,"active":true,"game_id":"g1"}`,
		},
		{
			name:   "empty roster",
			notice: session.Roster{},
			want:   `{"type":"Roster","players":[]}`,
		},
		{
			name:   "card offer",
			notice: session.CardOffer{ParticipantID: 1, Turn: 3, Cards: []int{5, 5, 9}},
			want:   `{"type":"CardOptions","player_id":1,"turn_id":3,"card_options":[5,5,9]}`,
		},
		{
			name:   "move",
			notice: session.MoveMade{Move: engine.Move{ParticipantID: 1, Turn: 3, Card: 9, Location: 2}},
			want:   `{"type":"Mutation","player_id":1,"turn_id":3,"card_type":9,"card_location":2}`,
		},
		{
			name:   "countdown",
			notice: session.Countdown{Seconds: 12},
			want:   `{"type":"Countdown","seconds":12}`,
		},
		{
			name:   "eliminated",
			notice: session.Eliminated{ParticipantID: 4},
			want:   `{"type":"PlayerEliminated","player_id":4}`,
		},
		{
			name:   "game over",
			notice: session.SessionOver{WinnerID: -1},
			want:   `{"type":"GameOver","winner_id":-1}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeNotice(tc.notice)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestEncodeNotice_RosterNeverLeaksKeys(t *testing.T) {
	p := engine.Participant{ID: 0, PrivateKey: "secretkey1", Username: "bob"}
	got, err := EncodeNotice(session.Roster{Participants: []engine.PublicParticipant{p.Public()}})
	require.NoError(t, err)

	var r Roster
	require.NoError(t, json.Unmarshal(got, &r))
	require.Len(t, r.Players, 1)
	assert.Empty(t, r.Players[0].PrivateKey)
	assert.NotContains(t, string(got), "secretkey1")
}

func TestEncodeNotice_RejectionIsPlainText(t *testing.T) {
	got, err := EncodeNotice(session.Rejection{Reason: engine.ErrSessionFull.Error()})
	require.NoError(t, err)
	assert.Equal(t, "session full", string(got))
}
