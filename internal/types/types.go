package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/DoyleJ11/card-arena-backend/internal/session"
)

const (
	MsgInitiateGame   = "InitiateGame"
	MsgChooseCard     = "ChooseCard"
	MsgAnimationsDone = "AnimationsDone"
	MsgVoteDeath      = "VoteDeath"
)

var (
	ErrBadJSON     = errors.New("bad json")
	ErrUnknownType = errors.New("unknown type")
)

type ClientMessage struct {
	Type string `json:"type"`

	// InitiateGame
	Username      string `json:"username,omitempty"`
	CharacterType int    `json:"character_type,omitempty"`

	// session commands; GameID defaults to the connection's session
	GameID     string `json:"game_id,omitempty"`
	PlayerID   int    `json:"player_id"`
	TargetID   int    `json:"target_id,omitempty"`
	PrivateKey string `json:"pk,omitempty"`
	TurnID     int    `json:"turn_id"`
	CardNumber int    `json:"card_number"`
	Location   int    `json:"location"`
}

func ParseClientMessage(data []byte) (ClientMessage, error) {
	var cm ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	switch cm.Type {
	case MsgInitiateGame, MsgChooseCard, MsgAnimationsDone, MsgVoteDeath:
		return cm, nil
	default:
		return ClientMessage{}, fmt.Errorf("%w %q", ErrUnknownType, cm.Type)
	}
}

// Command maps a session-addressed message to its session command. from
// receives any rejection. InitiateGame is handled by the matchmaker, not a
// session, and yields false.
func (m ClientMessage) Command(from *session.Outbox) (session.Msg, bool) {
	switch m.Type {
	case MsgChooseCard:
		return session.SubmitMove{
			ParticipantID: m.PlayerID,
			PrivateKey:    m.PrivateKey,
			Turn:          m.TurnID,
			Card:          m.CardNumber,
			Location:      m.Location,
			From:          from,
		}, true
	case MsgAnimationsDone:
		return session.AnimationDone{ParticipantID: m.PlayerID, PrivateKey: m.PrivateKey, Turn: m.TurnID, From: from}, true
	case MsgVoteDeath:
		return session.VoteDeath{VoterID: m.PlayerID, TargetID: m.TargetID, PrivateKey: m.PrivateKey, Turn: m.TurnID, From: from}, true
	default:
		return nil, false
	}
}

type Player struct {
	Type           string `json:"type"`
	ID             int    `json:"id"`
	PrivateKey     string `json:"private_key,omitempty"`
	Username       string `json:"username"`
	CharacterType  int    `json:"character_type"`
	PosX           int    `json:"pos_x"`
	PosY           int    `json:"pos_y"`
	PosOrientation int    `json:"pos_orientation"`
	IsAI           bool   `json:"is_ai"`
	Active         bool   `json:"active"`
	GameID         string `json:"game_id"`
}

func playerFrom(kind string, p engine.PublicParticipant, key string) Player {
	return Player{
		Type:           kind,
		ID:             p.ID,
		PrivateKey:     key,
		Username:       p.Username,
		CharacterType:  p.Character,
		PosX:           p.Position.X,
		PosY:           p.Position.Y,
		PosOrientation: p.Position.Facing,
		IsAI:           p.IsAI,
		Active:         p.Active,
		GameID:         p.SessionID,
	}
}

type Roster struct {
	Type    string   `json:"type"`
	Players []Player `json:"players"`
}

type CardOptions struct {
	Type        string `json:"type"`
	PlayerID    int    `json:"player_id"`
	TurnID      int    `json:"turn_id"`
	CardOptions []int  `json:"card_options"`
}

type Mutation struct {
	Type         string `json:"type"`
	PlayerID     int    `json:"player_id"`
	TurnID       int    `json:"turn_id"`
	CardType     int    `json:"card_type"`
	CardLocation int    `json:"card_location"`
}

type Countdown struct {
	Type    string `json:"type"`
	Seconds int    `json:"seconds"`
}

type PlayerEliminated struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
}

type GameOver struct {
	Type     string `json:"type"`
	WinnerID int    `json:"winner_id"`
}

// EncodeNotice renders a notice as a websocket text frame. Rejections are sent
// as their bare reason; everything else is a JSON object tagged by "type".
func EncodeNotice(n session.Notice) ([]byte, error) {
	var v any
	switch n := n.(type) {
	case session.Seated:
		v = playerFrom("Player", n.Participant.Public(), n.Participant.PrivateKey)
	case session.Roster:
		r := Roster{Type: "Roster", Players: make([]Player, 0, len(n.Participants))}
		for _, p := range n.Participants {
			r.Players = append(r.Players, playerFrom("Player", p, ""))
		}
		v = r
	case session.Joined:
		v = playerFrom("PlayerJoined", n.Participant, "")
	case session.CardOffer:
		v = CardOptions{Type: "CardOptions", PlayerID: n.ParticipantID, TurnID: n.Turn, CardOptions: n.Cards}
	case session.MoveMade:
		v = Mutation{
			Type:         "Mutation",
			PlayerID:     n.Move.ParticipantID,
			TurnID:       n.Move.Turn,
			CardType:     n.Move.Card,
			CardLocation: n.Move.Location,
		}
	case session.Countdown:
		v = Countdown{Type: "Countdown", Seconds: n.Seconds}
	case session.Eliminated:
		v = PlayerEliminated{Type: "PlayerEliminated", PlayerID: n.ParticipantID}
	case session.SessionOver:
		v = GameOver{Type: "GameOver", WinnerID: n.WinnerID}
	case session.Rejection:
		return []byte(n.Reason), nil
	default:
		return nil, fmt.Errorf("encode notice: unsupported %T", n)
	}
	return json.Marshal(v)
}
