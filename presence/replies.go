package presence

import (
	"math/rand"

	"chat-session/domain"

	"github.com/abadojack/whatlanggo"
)

// Canned peer replies by ISO 639-1 language code. The simulated peer
// answers in the language of the message it received, which keeps the
// demo conversation believable without any generative backend.
var replyPools = map[string][]string{
	"en": {
		"Sounds good!",
		"Got it, thanks for letting me know.",
		"Haha, that's great 😄",
		"Let me check and get back to you.",
		"Sure, works for me.",
	},
	"fr": {
		"Ça marche !",
		"Bien reçu, merci.",
		"Haha, excellent 😄",
		"Je regarde et je te redis.",
		"Pas de souci pour moi.",
	},
	"es": {
		"¡Suena bien!",
		"Recibido, gracias por avisar.",
		"Jaja, genial 😄",
		"Déjame revisarlo y te cuento.",
	},
	"de": {
		"Klingt gut!",
		"Alles klar, danke dir.",
		"Haha, super 😄",
		"Ich schaue es mir an und melde mich.",
	},
}

// Non-text messages get an acknowledgment instead of a themed answer.
var mediaReplies = []string{
	"Nice, just saw it!",
	"Thanks for sending that over.",
	"Got it 👍",
}

// replyTo picks a synthetic peer reply for the message that triggered
// the cycle.
func replyTo(rng *rand.Rand, kind domain.MessageKind, text string) string {
	if kind != domain.KindText || text == "" {
		return mediaReplies[rng.Intn(len(mediaReplies))]
	}

	info := whatlanggo.Detect(text)
	pool, ok := replyPools[info.Lang.Iso6391()]
	if !ok {
		pool = replyPools["en"]
	}
	return pool[rng.Intn(len(pool))]
}
