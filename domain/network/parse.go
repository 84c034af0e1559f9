package network

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopress/domain/core"
)

// arrowPattern matches an arrow token such as "->", "-*", "<-*", "o--o".
var arrowPattern = regexp.MustCompile(`^([<*o]?)(-+)([>*o]?)$`)

// groupComment matches a "# group: name" annotation
var groupComment = regexp.MustCompile(`^\s*group:\s*(\S.*?)\s*$`)

// ParseDigraph reads a model written in arrow notation, one or more
// comma separated edges per line:
//
//	Predator -* Prey
//	Prey -> Predator, Nutrient -o Prey
//	Kelp <-* Urchin
//
// The head symbol sets the type of the left-to-right edge (">" positive,
// "*" negative, "o" unknown) and the tail symbol the type of the
// right-to-left edge. A bare "--" declares a structurally zero edge.
//
// The length of a signed arrow's dash run names its edge group: "->" has
// no group, "-->" is group "2", "--->" group "3". A trailing
// "# group: name" comment sets the group of every edge on its line and
// takes precedence. Any other text after '#' is ignored.
func ParseDigraph(r io.Reader) (*Model, error) {
	var edges []Edge
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text, group := scanner.Text(), ""
		if i := strings.IndexByte(text, '#'); i >= 0 {
			if m := groupComment.FindStringSubmatch(text[i+1:]); m != nil {
				group = m[1]
			}
			text = text[:i]
		}
		for _, part := range strings.Split(text, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			parsed, err := parseEdgeSpec(part, line)
			if err != nil {
				return nil, err
			}
			for _, e := range parsed {
				if group != "" {
					e.Group = group
				}
				edges = append(edges, e)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	if len(edges) == 0 {
		return nil, core.ErrEmptyModel
	}
	return NewModel(edges)
}

// ParseDigraphString is a convenience wrapper around ParseDigraph
func ParseDigraphString(s string) (*Model, error) {
	return ParseDigraph(strings.NewReader(s))
}

func parseEdgeSpec(spec string, line int) ([]Edge, error) {
	fields := strings.Fields(spec)
	arrowAt := -1
	var m []string
	for i, f := range fields {
		if sub := arrowPattern.FindStringSubmatch(f); sub != nil {
			if arrowAt >= 0 {
				return nil, core.NewParseError(line, fmt.Sprintf("more than one arrow in %q", strings.TrimSpace(spec)))
			}
			arrowAt, m = i, sub
		}
	}
	if arrowAt < 0 {
		return nil, core.NewParseError(line, fmt.Sprintf("no arrow in %q", strings.TrimSpace(spec)))
	}
	left := strings.Join(fields[:arrowAt], " ")
	right := strings.Join(fields[arrowAt+1:], " ")
	if left == "" || right == "" {
		return nil, core.NewParseError(line, fmt.Sprintf("arrow %q is missing an endpoint", fields[arrowAt]))
	}

	tail, head := m[1], m[3]
	if tail == "" && head == "" {
		return []Edge{{From: left, To: right, Type: EdgeZero}}, nil
	}

	group := ""
	if n := len(m[2]); n > 1 {
		group = strconv.Itoa(n)
	}
	var edges []Edge
	if head != "" {
		edges = append(edges, Edge{From: left, To: right, Type: symbolType(head), Group: group})
	}
	if tail != "" {
		edges = append(edges, Edge{From: right, To: left, Type: symbolType(tail), Group: group})
	}
	return edges, nil
}

func symbolType(sym string) EdgeType {
	switch sym {
	case ">", "<":
		return EdgePositive
	case "*":
		return EdgeNegative
	default:
		return EdgeUnknown
	}
}

// FormatDigraph writes a model back out in arrow notation, one edge per
// line. Numeric groups of signed edges become dash runs, any other group
// a "# group:" comment.
func FormatDigraph(w io.Writer, m *Model) error {
	for _, e := range m.Edges {
		if _, err := fmt.Fprintln(w, formatEdge(e)); err != nil {
			return err
		}
	}
	return nil
}

func formatEdge(e Edge) string {
	if e.Group == "" {
		return e.String()
	}
	if n, err := strconv.Atoi(e.Group); err == nil && n > 1 && strconv.Itoa(n) == e.Group && e.Type != EdgeZero {
		head := map[EdgeType]string{EdgePositive: ">", EdgeNegative: "*", EdgeUnknown: "o"}[e.Type]
		return e.From + " " + strings.Repeat("-", n) + head + " " + e.To
	}
	return e.String() + " # group: " + e.Group
}
