package netlist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse matches every *ParseError through errors.Is.
var ErrParse = errors.New("netlist: parse error")

// ParseError names the offending netlist line.
type ParseError struct {
	Line   int    // 1-based line number in the input
	Text   string // Raw line text
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("netlist: line %d %q: %s", e.Line, strings.TrimSpace(e.Text), e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
