package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Kind int

const (
	Resistor Kind = iota
	VoltageSource
	CurrentSource
)

func (k Kind) String() string {
	switch k {
	case Resistor:
		return "R"
	case VoltageSource:
		return "V"
	case CurrentSource:
		return "I"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Unit returns the physical unit of an element value of this kind.
func (k Kind) Unit() string {
	switch k {
	case Resistor:
		return "Ohm"
	case VoltageSource:
		return "V"
	case CurrentSource:
		return "A"
	default:
		return ""
	}
}

type Element struct {
	Kind  Kind    // Part type (R, V, I)
	Name  string  // Part name, unique within a netlist
	NodeA int     // First terminal, 0 is ground
	NodeB int     // Second terminal, 0 is ground
	Value float64 // Ohms, volts or amperes depending on Kind
}

var kindMap = map[byte]Kind{
	'R': Resistor,
	'V': VoltageSource,
	'I': CurrentSource,
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var valueRe = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)(meg|[TGKkmunpf])?$`)

const commentMarkers = "*#;"

// Parse reads one element per line in the form "<Name> <NodeA> <NodeB> <Value>".
// Blank lines and lines starting with '*', '#' or ';' are skipped.
func Parse(input string) ([]Element, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))

	var elements []Element
	seen := make(map[string]int)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if len(line) == 0 || strings.ContainsRune(commentMarkers, rune(line[0])) {
			continue
		}

		// Strip trailing comment
		if idx := strings.IndexAny(line, commentMarkers); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		elem, err := parseElement(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: raw, Reason: err.Error()}
		}

		key := strings.ToUpper(elem.Name)
		if prev, dup := seen[key]; dup {
			return nil, &ParseError{Line: lineNo, Text: raw, Reason: fmt.Sprintf("duplicate element name %q (first defined on line %d)", elem.Name, prev)}
		}
		seen[key] = lineNo

		elements = append(elements, *elem)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %w", err)
	}

	return elements, nil
}

func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return nil, fmt.Errorf("expected 4 fields <Name> <NodeA> <NodeB> <Value>, got %d", len(fields))
	}

	kind, ok := kindMap[strings.ToUpper(fields[0])[0]]
	if !ok {
		return nil, fmt.Errorf("unknown element kind %q (want R, V or I)", fields[0][:1])
	}

	nodeA, err := parseNode(fields[1])
	if err != nil {
		return nil, err
	}
	nodeB, err := parseNode(fields[2])
	if err != nil {
		return nil, err
	}

	value, err := ParseValue(fields[3])
	if err != nil {
		return nil, err
	}

	return &Element{
		Kind:  kind,
		Name:  fields[0],
		NodeA: nodeA,
		NodeB: nodeB,
		Value: value,
	}, nil
}

func parseNode(field string) (int, error) {
	node, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid node %q: not an integer", field)
	}
	if node < 0 {
		return 0, fmt.Errorf("invalid node %d: must be >= 0", node)
	}
	return node, nil
}

// ParseValue parses a float literal with an optional SPICE scale suffix (1k, 4.7u, 2meg).
func ParseValue(val string) (float64, error) {
	val = strings.TrimSpace(val)

	// Plain literals first so that "1e3" is never read as a suffixed value
	if num, err := strconv.ParseFloat(val, 64); err == nil {
		if !valueRe.MatchString(val) {
			return 0, fmt.Errorf("invalid value format: %s", val)
		}
		return num, nil
	}

	matches := valueRe.FindStringSubmatch(val)
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	// factor
	if matches[2] != "" {
		num *= unitMap[matches[2]]
	}

	return num, nil
}

// Format renders elements back into netlist text, one per line.
func Format(elements []Element) string {
	var sb strings.Builder
	for _, e := range elements {
		fmt.Fprintf(&sb, "%s %d %d %s\n", e.Name, e.NodeA, e.NodeB, strconv.FormatFloat(e.Value, 'g', -1, 64))
	}
	return sb.String()
}
