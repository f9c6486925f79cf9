package term

import "strings"

// String renders a term for reports. Nodes are printed by kind only, their
// children are not expanded.
func String(t Term) string {
	var sb strings.Builder
	write(&sb, t)
	return sb.String()
}

func write(sb *strings.Builder, t Term) {
	switch v := t.(type) {
	case Node:
		sb.WriteString(string(v.Kind()))
		if s, ok := v.Tree.(interface{ Summary() string }); ok {
			if sum := s.Summary(); sum != "" {
				sb.WriteString("(")
				sb.WriteString(sum)
				sb.WriteString(")")
			}
		}
	case List:
		sb.WriteString("[")
		for i, e := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			write(sb, e)
		}
		sb.WriteString("]")
	case Box:
		sb.WriteString(v.Literal())
	default:
		sb.WriteString("<nil>")
	}
}

// Describe names the shape of a term: "node", "list" or "box".
func Describe(t Term) string {
	switch t.(type) {
	case Node:
		return "node"
	case List:
		return "list"
	case Box:
		return "box"
	}
	return "nothing"
}
