package engine

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var ErrWrongKey = errors.New("wrong private key")
var ErrInvalidCard = errors.New("invalid card")
var ErrInvalidLocation = errors.New("invalid location")
var ErrSessionFull = errors.New("session full")

const (
	PrivateKeyLength = 10
	MaxNameLength    = 20
)

func CheckKey(p *Participant, key string) error {
	if subtle.ConstantTimeCompare([]byte(p.PrivateKey), []byte(key)) != 1 {
		return ErrWrongKey
	}
	return nil
}

// ValidateMove checks a submission against the participant's key and current
// offer. AI participants may play any card.
func ValidateMove(cfg Config, p *Participant, key string, card, location int) error {
	if err := CheckKey(p, key); err != nil {
		return err
	}
	if p.IsAI {
		return nil
	}
	if !p.Offered(card) {
		return ErrInvalidCard
	}
	if location < 0 || location >= cfg.Locations {
		return ErrInvalidLocation
	}
	return nil
}

// Quorum is ceil(percent% of activeHumans).
func Quorum(activeHumans, percent int) int {
	return (activeHumans*percent + 99) / 100
}

// StallReached reports whether at least percent% of active humans are done.
// With no active humans left it always holds, so bot-only turns still advance.
func StallReached(done, activeHumans, percent int) bool {
	return done*100 >= activeHumans*percent
}

func NewPrivateKey() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	key := make([]byte, PrivateKeyLength)
	for i := range key {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("generate private key: %w", err)
		}
		key[i] = charset[n.Int64()]
	}
	return string(key), nil
}

// SanitizeName trims and NFC-normalizes a display name, capping it at
// MaxNameLength runes.
func SanitizeName(name string, id int) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return fmt.Sprintf("Player %d", id)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}

func BotName(id int) string { return fmt.Sprintf("Bot %d", id) }
