package filedb

import (
	"time"

	"github.com/dlclark/regexp2"
	"github.com/hansbonini/gcnrecover/pkg/common"
)

// MatchTimeout bounds a single pattern evaluation. Signature patterns run
// against at most 32 bytes of text, so hitting it means the pattern is
// pathological.
const MatchTimeout = 100 * time.Millisecond

// MatcherState tells whether a Matcher can match at all.
type MatcherState uint8

const (
	// MatcherEmpty holds an empty pattern. It never matches.
	MatcherEmpty MatcherState = iota
	// MatcherInvalid holds a pattern that failed to compile. It never matches.
	MatcherInvalid
	// MatcherCompiled holds a usable compiled pattern.
	MatcherCompiled
)

func (s MatcherState) String() string {
	switch s {
	case MatcherEmpty:
		return "empty"
	case MatcherInvalid:
		return "invalid"
	case MatcherCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Matcher is a pattern compiled once at load time. The zero value is an
// empty matcher.
type Matcher struct {
	pattern string
	state   MatcherState
	re      *regexp2.Regexp
	err     error
}

// NewMatcher compiles pattern. Compilation errors are kept on the matcher
// instead of being returned; see Err.
func NewMatcher(pattern string) Matcher {
	if pattern == "" {
		return Matcher{}
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return Matcher{pattern: pattern, state: MatcherInvalid, err: err}
	}
	re.MatchTimeout = MatchTimeout

	return Matcher{pattern: pattern, state: MatcherCompiled, re: re}
}

// Pattern returns the source pattern.
func (m Matcher) Pattern() string {
	return m.pattern
}

// State returns the matcher state.
func (m Matcher) State() MatcherState {
	return m.state
}

// Err returns the compilation error of an invalid matcher.
func (m Matcher) Err() error {
	return m.err
}

// Match reports whether the pattern matches anywhere in text. Empty and
// invalid matchers never match, not even the empty string.
func (m Matcher) Match(text string) bool {
	if m.state != MatcherCompiled {
		return false
	}

	ok, err := m.re.MatchString(text)
	if err != nil {
		common.LogDebug(common.DebugMatchTimeout, m.pattern, text)
		return false
	}
	return ok
}
