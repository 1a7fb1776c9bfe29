// Package types holds the websocket wire format.
//
// Client -> Server (JSON, tagged by "type")
//
//	InitiateGame:
//	  username: string
//	  character_type: number
//
//	ChooseCard:
//	  player_id: number
//	  pk: string
//	  turn_id: number
//	  card_number: number
//	  location: number
//	  game_id: string // optional, defaults to the joined session
//
//	AnimationsDone:
//	  player_id, pk, turn_id
//
//	VoteDeath:
//	  player_id, target_id, pk, turn_id
//
// Server -> Client
//
//	Player            own record, sent once on join with private_key
//	Roster            players: Player[] seated before you
//	PlayerJoined      a later arrival, never with a key
//	CardOptions       player_id, turn_id, card_options: number[]
//	Mutation          player_id, turn_id, card_type, card_location
//	Countdown         seconds
//	PlayerEliminated  player_id
//	GameOver          winner_id (-1 for none)
//
// Rejections are plain text frames, e.g. "wrong private key".
package types
