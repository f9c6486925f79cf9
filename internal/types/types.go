package types

import (
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
)

// Severity is the reporting level of a rule.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

var severityNames = [...]string{
	SeverityError:   "ERROR",
	SeverityWarning: "WARNING",
	SeverityInfo:    "INFO",
	SeverityOff:     "OFF",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// ParseSeverity parses a severity name, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}
	return SeverityError, errors.Newf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Capture is a rendered variable binding of a match.
type Capture struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Issue is a node matched by a rule.
type Issue struct {
	Rule     string         `json:"rule"`
	Filename string         `json:"filename"`
	Kind     string         `json:"kind"`
	Message  string         `json:"message,omitempty"`
	Severity Severity       `json:"severity"`
	Start    token.Position `json:"start"`
	End      token.Position `json:"end"`
	Captures []Capture      `json:"captures,omitempty"`
}
