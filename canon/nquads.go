// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package canon

import (
	"fmt"
	"sort"
	"strings"
)

// Substitution rewrites a blank node's local identifier during
// serialization. The zero value (nil) is the identity substitution — the
// original identifier passes through unchanged.
type Substitution func(bnid string) string

func identitySubstitution(bnid string) string { return bnid }

// serializeNode renders a single term using the canonical N-Quads escaping
// rules (spec §4.1). subst rewrites blank node identifiers; pass nil for the
// identity substitution.
func serializeNode(n Node, subst Substitution) string {
	switch v := n.(type) {
	case *IRI:
		return "<" + escapeIRI(v.Value) + ">"
	case *BlankNode:
		id := v.Attribute
		if subst != nil {
			id = subst(id)
		}
		return "_:" + id
	case *Literal:
		s := `"` + escapeLiteral(v.Value) + `"`
		switch {
		case v.Datatype == RDFLangString:
			s += "@" + v.Language
		case v.Datatype != XSDString:
			s += "^^<" + escapeIRI(v.Datatype) + ">"
		}
		return s
	default:
		return ""
	}
}

// serializeQuad renders one quad as a single canonical N-Quads line,
// including its trailing "\n". Every consumer — H1DQ's hash input and the
// final dataset emission alike — sorts a set of these self-terminated
// lines and concatenates them directly, so the line's own newline doubles
// as the join separator and there is never a missing or doubled newline at
// a boundary (spec §4.1, §4.3).
func serializeQuad(q *Quad, subst Substitution) string {
	var b strings.Builder
	b.WriteString(serializeNode(q.Subject, subst))
	b.WriteByte(' ')
	b.WriteString(serializeNode(q.Predicate, subst))
	b.WriteByte(' ')
	b.WriteString(serializeNode(q.Object, subst))
	if q.Graph != nil {
		b.WriteByte(' ')
		b.WriteString(serializeNode(q.Graph, subst))
	}
	b.WriteString(" .\n")
	return b.String()
}

// SerializeDataset renders quads as canonical N-Quads: each quad on its own
// self-terminated line, lines sorted in ascending byte order and
// concatenated (spec §4.1 "Dataset final emission"). subst rewrites blank
// node identifiers; pass nil for the identity substitution.
func SerializeDataset(quads []*Quad, subst Substitution) string {
	lines := make([]string, len(quads))
	for i, q := range quads {
		lines[i] = serializeQuad(q, subst)
	}
	sort.Strings(lines)
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
	}
	return b.String()
}

// escapeIRI escapes an IRI's lexical value per the canonical N-Triples
// rules referenced by spec §4.1: U+0000..U+0020, U+0022, U+003C, U+003E,
// U+005C and U+007F..U+10FFFF are escaped; everything else passes through.
func escapeIRI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if needsIRIEscape(r) {
			writeUEscape(&b, r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsIRIEscape(r rune) bool {
	return r <= 0x20 || r == 0x22 || r == 0x3C || r == 0x3E || r == 0x5C || r >= 0x7F
}

// escapeLiteral escapes a literal's lexical form per spec §4.1: the named
// tokens \b \t \n  \f \r \" \\ , and uppercase \uXXXX for any
// other C0/C1/BOM control character. Everything else — including non-ASCII
// text — passes through as-is.
func escapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if isControlOrBOM(r) {
				writeUEscape(&b, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func isControlOrBOM(r rune) bool {
	return r <= 0x1F || (r >= 0x7F && r <= 0x9F) || r == 0xFEFF
}

func writeUEscape(b *strings.Builder, r rune) {
	if r > 0xFFFF {
		fmt.Fprintf(b, `\U%08X`, r)
	} else {
		fmt.Fprintf(b, `\u%04X`, r)
	}
}
