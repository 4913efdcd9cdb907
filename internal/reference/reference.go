// Package reference generates and checks payment reference tokens of the form
// PREFIX-######-XXXXXXXX.
package reference

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix is used when a Generator has no prefix configured.
const DefaultPrefix = "HUPS"

var defaultGenerator = New(DefaultPrefix)

// Generator builds references from a clock and a random source.
type Generator struct {
	Prefix string
	Now    func() time.Time
	Rand   io.Reader

	pattern *regexp.Regexp
}

// New returns a Generator using the wall clock and crypto/rand.
func New(prefix string) *Generator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{
		Prefix:  prefix,
		Now:     time.Now,
		Rand:    rand.Reader,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-\d{6}-[A-F0-9]{8}$`),
	}
}

// Generate returns a new reference. The student ID does not influence the
// token; it is accepted so callers can later bind references to students.
func (g *Generator) Generate(_ string) (string, error) {
	now := g.Now
	if now == nil {
		now = time.Now
	}
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}

	ms := strconv.FormatInt(now().UnixMilli(), 10)
	if len(ms) < 6 {
		ms = strings.Repeat("0", 6-len(ms)) + ms
	}

	var buf [4]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return "", fmt.Errorf("reference: read random: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", g.Prefix, ms[len(ms)-6:], strings.ToUpper(hex.EncodeToString(buf[:]))), nil
}

// Validate reports whether ref matches the generator's format.
func (g *Generator) Validate(ref string) bool {
	pattern := g.pattern
	if pattern == nil {
		pattern = regexp.MustCompile(`^` + regexp.QuoteMeta(g.Prefix) + `-\d{6}-[A-F0-9]{8}$`)
	}
	return pattern.MatchString(ref)
}

// Generate returns a reference with the default prefix.
func Generate(studentID string) (string, error) {
	return defaultGenerator.Generate(studentID)
}

// Validate checks ref against the default prefix format.
func Validate(ref string) bool {
	return defaultGenerator.Validate(ref)
}
