// Package format holds helpers for shaping outbound Telegram text.
package format

import "strings"

// MaxMessageUnits is the chunk size used for long listings. Telegram rejects
// messages longer than 4096 UTF-16 code units; the margin leaves room for headers.
const MaxMessageUnits = 4000

// Units counts text the way Telegram does: in UTF-16 code units.
func Units(text string) int {
	n := 0
	for _, r := range text {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// Chunk splits text into ordered segments of at most limit UTF-16 units.
// Splits happen after a newline when possible so entries stay intact; a single
// line longer than limit is cut at rune boundaries.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageUnits
	}
	if text == "" {
		return nil
	}
	if Units(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		units  int
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			units = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lu := Units(line)
		if units+lu <= limit {
			cur.WriteString(line)
			units += lu
			continue
		}
		flush()
		if lu <= limit {
			cur.WriteString(line)
			units = lu
			continue
		}
		for _, r := range line {
			ru := runeUnits(r)
			if units+ru > limit {
				flush()
			}
			cur.WriteRune(r)
			units += ru
		}
	}
	flush()
	return chunks
}
