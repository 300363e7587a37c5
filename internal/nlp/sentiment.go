package nlp

import (
	"context"
	"math"
	"strings"
)

// LexicalSentiment is a valence-lexicon sentiment scorer using the same
// compound normalisation as VADER. It needs no network or model files.
type LexicalSentiment struct{}

const (
	negationScalar = -0.74
	boosterIncr    = 0.293
	normAlpha      = 15.0
)

var valence = map[string]float64{
	"good": 1.9, "great": 3.1, "awesome": 3.1, "excellent": 2.7, "nice": 1.8,
	"thanks": 1.9, "thank": 1.5, "love": 3.2, "happy": 2.7, "glad": 2.0,
	"perfect": 2.7, "amazing": 2.8, "cool": 1.3, "lgtm": 1.5, "well": 1.1,
	"fixed": 1.0, "works": 1.1, "working": 0.8, "done": 0.6, "success": 2.7,
	"successful": 2.4, "helpful": 1.9, "ready": 0.8, "easy": 1.9, "clean": 1.7,
	"bad": -2.5, "terrible": -2.1, "awful": -2.0, "hate": -2.7, "broken": -1.9,
	"stuck": -1.4, "blocked": -1.2, "fail": -2.5, "failed": -2.3, "failing": -2.1,
	"error": -1.3, "errors": -1.3, "crash": -1.7, "crashes": -1.7, "bug": -1.0,
	"problem": -1.7, "issue": -0.8, "wrong": -2.1, "confused": -1.3,
	"frustrated": -2.4, "annoying": -1.7, "slow": -0.9, "worse": -2.1,
	"worst": -3.1, "sorry": -0.3, "late": -0.8, "sad": -2.1, "ugh": -1.8,
}

var negations = toSet(`not no never none nobody nothing neither nor cannot cant dont doesnt didnt
isnt wasnt arent werent wont wouldnt shouldnt couldnt aint without`)

var boosters = toSet(`very really extremely super so totally completely absolutely incredibly
quite`)

func (LexicalSentiment) Sentiment(_ context.Context, text string) (float64, error) {
	return compound(text), nil
}

func compound(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	var sum float64
	for i, raw := range words {
		w := strings.Trim(raw, ".,!?;:\"()[]{}")
		v, ok := valence[w]
		if !ok {
			continue
		}
		if i > 0 {
			prev := strings.ReplaceAll(strings.Trim(words[i-1], ".,!?;:\"()"), "'", "")
			if _, boost := boosters[prev]; boost {
				if v > 0 {
					v += boosterIncr
				} else {
					v -= boosterIncr
				}
			}
		}
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			prev := strings.ReplaceAll(strings.Trim(words[j], ".,!?;:\"()"), "'", "")
			if _, neg := negations[prev]; neg {
				v *= negationScalar
				break
			}
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}
	score := sum / math.Sqrt(sum*sum+normAlpha)
	return math.Max(-1, math.Min(1, score))
}
