package smt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ToSMT2 renders the current clause set as an SMT-LIB2 script: one
// declare-const per referenced atom, one assert per clause, and a
// trailing check-sat. It is the ".smt" side file spec.md §6 attaches
// to a mined specification's condition tree.
func (s *Solver) ToSMT2() string {
	var b strings.Builder
	atoms := s.allAtoms()
	sort.Slice(atoms, func(i, j int) bool { return atoms[i] < atoms[j] })
	for _, a := range atoms {
		fmt.Fprintf(&b, "(declare-const a%d Bool) ; %s\n", a, s.labels[a])
	}
	for _, c := range s.clauses {
		fmt.Fprintf(&b, "(assert %s)\n", clauseString(c))
	}
	b.WriteString("(check-sat)\n")
	return b.String()
}

func clauseString(c Clause) string {
	if len(c) == 1 {
		return c[0].String()
	}
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = l.String()
	}
	return "(or " + strings.Join(parts, " ") + ")"
}

// WriteSMT2 writes ToSMT2's output to path.
func (s *Solver) WriteSMT2(path string) error {
	return os.WriteFile(path, []byte(s.ToSMT2()), 0o644)
}

// FromFile reads back a script produced by ToSMT2. It understands
// only the subset this package itself emits (declare-const ... Bool,
// assert of a literal or an (or ...) of literals, optional (not ...)
// negation, and a trailing check-sat) — it is a round-trip reader for
// this module's own side files, not a general SMT-LIB2 parser.
func FromFile(path string) (*Solver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("smt: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Solver, error) {
	s := New()
	byName := make(map[string]Atom)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "(declare-const"):
			name, err := parseDeclare(line)
			if err != nil {
				return nil, err
			}
			a := s.NewAtom(name)
			byName[name] = a
		case strings.HasPrefix(line, "(assert"):
			clause, err := parseAssert(line, byName)
			if err != nil {
				return nil, err
			}
			s.clauses = append(s.clauses, clause)
		case strings.HasPrefix(line, "(check-sat)"):
			// terminal marker, nothing to do
		default:
			return nil, fmt.Errorf("smt: unrecognised line %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		return line[:i]
	}
	return line
}

func parseDeclare(line string) (string, error) {
	// (declare-const aN Bool)
	body := strings.TrimSuffix(strings.TrimPrefix(line, "(declare-const"), ")")
	fields := strings.Fields(body)
	if len(fields) < 1 {
		return "", fmt.Errorf("smt: malformed declare-const %q", line)
	}
	return fields[0], nil
}

func parseAssert(line string, byName map[string]Atom) (Clause, error) {
	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "(assert"), ")"))
	if strings.HasPrefix(body, "(or ") {
		body = strings.TrimSuffix(strings.TrimPrefix(body, "(or"), ")")
		body = strings.TrimSpace(body)
	}
	lits, err := parseLiterals(body, byName)
	if err != nil {
		return nil, err
	}
	return lits, nil
}

// parseLiterals splits a space-separated sequence of literals, each
// either "aN" or "(not aN)".
func parseLiterals(body string, byName map[string]Atom) (Clause, error) {
	var clause Clause
	tokens := tokenizeLiterals(body)
	for _, tok := range tokens {
		neg := false
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, "(not ") {
			neg = true
			tok = strings.TrimSuffix(strings.TrimPrefix(tok, "(not "), ")")
			tok = strings.TrimSpace(tok)
		}
		a, ok := byName[tok]
		if !ok {
			return nil, fmt.Errorf("smt: reference to undeclared atom %q", tok)
		}
		clause = append(clause, Lit{Atom: a, Neg: neg})
	}
	return clause, nil
}

// tokenizeLiterals splits on spaces at paren depth zero, so "(not a1)
// a2" becomes ["(not a1)", "a2"].
func tokenizeLiterals(body string) []string {
	var tokens []string
	depth := 0
	start := 0
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				if i > start {
					tokens = append(tokens, body[start:i])
				}
				start = i + 1
			}
		}
	}
	if start < len(body) {
		tokens = append(tokens, body[start:])
	}
	return tokens
}

// atomName renders the canonical "aN" spelling used in ToSMT2 output.
func atomName(a Atom) string { return "a" + strconv.Itoa(int(a)) }
