package backfill

import (
	"hash/fnv"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
)

// dedupWindow is the timestamp resolution used when matching messages that
// appear in more than one export.
const dedupWindow = time.Second

// seenSet remembers timestamped messages already imported or queued for
// import, by fingerprint.
type seenSet map[string]struct{}

func newSeenSet(fingerprints []string) seenSet {
	s := make(seenSet, len(fingerprints))
	for _, fp := range fingerprints {
		s[fp] = struct{}{}
	}
	return s
}

// fingerprint hashes author, text and the timestamp at dedupWindow
// resolution. Messages without a timestamp have none.
func fingerprint(m chat.Message) (string, bool) {
	if m.Timestamp == nil {
		return "", false
	}
	h := fnv.New64a()
	h.Write([]byte(m.Author))
	h.Write([]byte{0})
	h.Write([]byte(m.Timestamp.UTC().Truncate(dedupWindow).Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(m.Text))
	return strconv.FormatUint(h.Sum64(), 16), true
}

// filter drops messages already seen in this run. Messages without a
// timestamp cannot be matched across exports and always pass.
func (s seenSet) filter(msgs []chat.Message) ([]chat.Message, int) {
	kept := msgs[:0:0]
	dropped := 0
	for _, m := range msgs {
		key, ok := fingerprint(m)
		if ok {
			if _, dup := s[key]; dup {
				dropped++
				continue
			}
			s[key] = struct{}{}
		}
		kept = append(kept, m)
	}
	return kept, dropped
}

// batches splits msgs into consecutive slices of at most size messages.
func batches(msgs []chat.Message, size int) [][]chat.Message {
	if size <= 0 {
		size = len(msgs)
	}
	var out [][]chat.Message
	for len(msgs) > 0 {
		n := min(size, len(msgs))
		out = append(out, msgs[:n])
		msgs = msgs[n:]
	}
	return out
}
