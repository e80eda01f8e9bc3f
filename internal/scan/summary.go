package scan

import (
	"strings"
	"time"

	"github.com/wonny/twscreener/internal/contracts"
)

// Summary is the result of one scan run
type Summary struct {
	Universe          int
	Matched           []contracts.MatchRecord
	FilteredOut       int
	Filters           map[string]int // reason -> count
	PermanentlyFailed []string
	Retried           int
	Calls             int // upstream call attempts, retries included
	Cooldowns         int
	StartedAt         time.Time
	Duration          time.Duration
	Interrupted       bool
}

// MatchedCodes returns the matched codes in notification order
func (s *Summary) MatchedCodes() []string {
	codes := make([]string, 0, len(s.Matched))
	for _, m := range s.Matched {
		codes = append(codes, m.Code)
	}
	return codes
}

// Recovered counts matches found on the retry pass
func (s *Summary) Recovered() int {
	n := 0
	for _, m := range s.Matched {
		if m.Recovered {
			n++
		}
	}
	return n
}

func (s *Summary) String() string {
	var b strings.Builder
	b.WriteString("matched=")
	b.WriteString(strings.Join(s.MatchedCodes(), ","))
	if len(s.PermanentlyFailed) > 0 {
		b.WriteString(" failed=")
		b.WriteString(strings.Join(s.PermanentlyFailed, ","))
	}
	return b.String()
}
