package moderation

import (
	"log/slog"
	"regexp"
	"strings"
)

const defaultHistoryPerAuthor = 10

// SpamDetector flags messages by two independent signals: a configured
// list of spam regex patterns, and repetition of the same normalized
// text by the same author. Either signal alone is sufficient.
type SpamDetector struct {
	patterns  []*regexp.Regexp
	threshold int
	history   map[string][]string // author -> recent normalized texts, bounded
	histSize  int
	logger    *slog.Logger
}

// NewSpamDetector compiles the patterns case-insensitively. Patterns
// that fail to compile are skipped with a warning rather than disabling
// the detector.
func NewSpamDetector(patterns []string, repetitionThreshold int, logger *slog.Logger) *SpamDetector {
	if repetitionThreshold <= 0 {
		repetitionThreshold = 3
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			logger.Warn("skipping invalid spam pattern", "pattern", p, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	return &SpamDetector{
		patterns:  compiled,
		threshold: repetitionThreshold,
		history:   make(map[string][]string),
		histSize:  defaultHistoryPerAuthor,
		logger:    logger,
	}
}

// IsSpam records the message in the author's bounded history and reports
// whether it trips either signal. With a threshold of 3, the third
// identical message from one author flags, not the second.
func (d *SpamDetector) IsSpam(author, text string) bool {
	for _, re := range d.patterns {
		if re.MatchString(text) {
			d.logger.Debug("spam pattern matched", "author", author, "pattern", re.String())
			return true
		}
	}

	norm := strings.TrimSpace(strings.ToLower(text))
	recent := append(d.history[author], norm)
	if len(recent) > d.histSize {
		recent = recent[len(recent)-d.histSize:]
	}
	d.history[author] = recent

	count := 0
	for _, m := range recent {
		if m == norm {
			count++
		}
	}
	if count >= d.threshold {
		d.logger.Debug("repetitive spam", "author", author, "count", count)
		return true
	}
	return false
}
