package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gnolang/astrule/internal/pattern"
	"github.com/gnolang/astrule/internal/term"
)

var (
	intLiteral   = regexp.MustCompile(`^[0-9]+$`)
	floatLiteral = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
)

var boxTypes = map[string]term.BoxKind{
	"int":   term.KindInt,
	"str":   term.KindString,
	"bool":  term.KindBool,
	"float": term.KindFloat,
}

// parseConstant parses the text following "=" in a rule expression.
func parseConstant(s string) (pattern.Pattern, error) {
	switch s {
	case "True", "true":
		return boxed(true), nil
	case "False", "false":
		return boxed(false), nil
	case "None", "nil":
		return boxed(nil), nil
	case "...":
		return pattern.BoxValueRule{Value: term.Box{Value: term.Ellipsis}}, nil
	}

	if kind, ok := boxTypes[s]; ok {
		return pattern.BoxTypeRule{Kind: kind}, nil
	}

	switch {
	case strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") || strings.HasPrefix(s, "`"):
		str, err := unquote(s)
		if err != nil {
			return nil, errors.Newf("invalid string literal %s", s)
		}
		return boxed(str), nil

	case intLiteral.MatchString(s):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Newf("integer literal %s is out of range", s)
		}
		return boxed(n), nil

	case floatLiteral.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Newf("invalid float literal %s", s)
		}
		return boxed(f), nil
	}

	return nil, errors.Newf("unknown constant: %q", s)
}

func boxed(v any) pattern.BoxValueRule {
	return pattern.BoxValueRule{Value: term.NewBox(v)}
}

// unquote accepts Go double-quoted and backquoted literals, and single-quoted
// strings of any length using the same escapes.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return strconv.Unquote(s)
	}

	var sb strings.Builder
	sb.WriteByte('"')
	inner := s[1 : len(s)-1]
	for i := 0; i < len(inner); i++ {
		switch ch := inner[i]; {
		case ch == '\\' && i+1 < len(inner) && inner[i+1] == '\'':
			sb.WriteByte('\'')
			i++
		case ch == '\\' && i+1 < len(inner):
			sb.WriteByte(ch)
			sb.WriteByte(inner[i+1])
			i++
		case ch == '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(ch)
		}
	}
	sb.WriteByte('"')
	return strconv.Unquote(sb.String())
}
