package main

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	SelfID   string `env:"SELF_ID,default=alice"`
	SelfName string `env:"SELF_NAME,default=Alice"`
	PeerID   string `env:"PEER_ID,default=bob"`
	PeerName string `env:"PEER_NAME,default=Bob"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL"`

	MinReplyDelay   time.Duration `env:"MIN_REPLY_DELAY"`
	MaxReplyDelay   time.Duration `env:"MAX_REPLY_DELAY"`
	AckInterval     time.Duration `env:"ACK_INTERVAL"`
	ReadProbability float64       `env:"READ_PROBABILITY"`
	OnlineChance    float64       `env:"ONLINE_CHANCE"`

	BannedWords     string `env:"BANNED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}

// BannedWordList splits the comma-separated BANNED_WORDS value,
// dropping empty entries.
func (c Config) BannedWordList() []string {
	if c.BannedWords == "" {
		return nil
	}
	parts := strings.Split(c.BannedWords, ",")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if word := strings.TrimSpace(part); word != "" {
			words = append(words, word)
		}
	}
	return words
}
