// Package parser reads and writes SVG transform-list attributes such as
// "translate(10 20) rotate(45)".
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/pdfmcr/internal/units"
)

var (
	funcRe  = regexp.MustCompile(`^\s*([A-Za-z]+)\s*\(([^()]*)\)\s*,?`)
	splitRe = regexp.MustCompile(`[\s,]+`)
)

// argCounts lists the argument counts each function accepts.
var argCounts = map[units.OpKind][]int{
	units.OpTranslate: {1, 2},
	units.OpScale:     {1, 2},
	units.OpRotate:    {1, 3},
	units.OpSkewX:     {1},
	units.OpSkewY:     {1},
	units.OpMatrix:    {6},
}

// ParseTransform parses a transform list into ops, first op first. An empty
// or blank attribute yields an empty stack.
func ParseTransform(attr string) ([]units.Op, error) {
	rest := attr
	var ops []units.Op
	for strings.TrimSpace(rest) != "" {
		m := funcRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil, fmt.Errorf("parser: malformed transform at %q", strings.TrimSpace(rest))
		}
		name := rest[m[2]:m[3]]
		rawArgs := strings.TrimSpace(rest[m[4]:m[5]])
		rest = rest[m[1]:]

		kind, ok := units.OpKindByName(name)
		if !ok {
			return nil, fmt.Errorf("parser: unknown transform function %q", name)
		}
		args, err := parseArgs(rawArgs)
		if err != nil {
			return nil, fmt.Errorf("parser: %s: %w", name, err)
		}
		if !validCount(kind, len(args)) {
			return nil, fmt.Errorf("parser: %s takes %v arguments, got %d", name, argCounts[kind], len(args))
		}
		ops = append(ops, units.Op{Kind: kind, Args: args})
	}
	return ops, nil
}

func parseArgs(raw string) ([]float64, error) {
	if raw == "" {
		return nil, nil
	}
	fields := splitRe.Split(raw, -1)
	args := make([]float64, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		args = append(args, v)
	}
	return args, nil
}

func validCount(kind units.OpKind, n int) bool {
	for _, c := range argCounts[kind] {
		if c == n {
			return true
		}
	}
	return false
}

// FormatTransform renders ops as a transform-list attribute.
func FormatTransform(ops []units.Op) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		args := make([]string, len(op.Args))
		for i, a := range op.Args {
			args[i] = strconv.FormatFloat(a, 'g', -1, 64)
		}
		parts = append(parts, op.Kind.String()+"("+strings.Join(args, " ")+")")
	}
	return strings.Join(parts, " ")
}
