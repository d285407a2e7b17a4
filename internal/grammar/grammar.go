// Package grammar implements the record grammar shared by every artifact
// document in the pipeline.
//
// All documents are flat line sequences, not Markdown: a record starts at a
// header line ("KIND-001: title"), carries its fields as consecutive
// "- Label: value" lines in a fixed order, and ends at the next header of
// any known kind or at end of document. All six task kinds and the
// stage-transformer inputs share this one parsing primitive so the grammar
// can evolve in a single place.
package grammar

import (
	"fmt"
	"regexp"
	"strings"
)

// headerRE recognizes a record header of any known kind. The kind is one
// or more upper-case words joined by hyphens (RED, RED-SETUP, GREEN-CONFIG)
// followed by a numeric id and a colon.
var headerRE = regexp.MustCompile(`^([A-Z][A-Z0-9]*(?:-[A-Z][A-Z0-9]*)*)-(\d+): (.*)$`)

// Field declares one labelled line of a record template.
type Field struct {
	Label      string
	Backquoted bool // value is delimited by single back-quotes, preserved verbatim
}

// Template declares the shape of one record kind: the header title pattern
// and the ordered field labels that must follow it.
type Template struct {
	Kind   string         // header prefix, e.g. "RED-SETUP"
	Title  *regexp.Regexp // matched against the text after "KIND-NNN: "
	Fields []Field
}

// NewTemplate compiles a template. The title pattern is anchored at the
// start of the header remainder; its capture groups become Record.Title.
func NewTemplate(kind, titlePattern string, fields []Field) *Template {
	return &Template{
		Kind:   kind,
		Title:  regexp.MustCompile(`^` + titlePattern),
		Fields: fields,
	}
}

// Record is one extracted record: the numeric id, the title capture groups,
// and the field values keyed by label.
type Record struct {
	Kind   string
	ID     string   // zero-padded numeric part, e.g. "001"
	Title  []string // capture groups from the template's title pattern
	Fields map[string]string
	Line   int // 1-based header line in the source document
}

// Dropped describes a header that matched a template's kind but whose
// record could not be extracted. The record is not emitted; callers may
// surface the drop as a warning.
type Dropped struct {
	Kind   string
	ID     string
	Line   int
	Reason string
}

// Extract returns the ordered records of the template's kind found in the
// document. Records with missing or out-of-order required fields are
// dropped whole; no partial record is ever emitted.
func Extract(doc string, tmpl *Template) []Record {
	records, _ := ExtractWithDropped(doc, tmpl)
	return records
}

// ExtractWithDropped is Extract plus the list of headers that matched the
// kind but failed field extraction.
func ExtractWithDropped(doc string, tmpl *Template) ([]Record, []Dropped) {
	lines := strings.Split(doc, "\n")

	var records []Record
	var dropped []Dropped

	for i := 0; i < len(lines); i++ {
		m := headerRE.FindStringSubmatch(lines[i])
		if m == nil || m[1] != tmpl.Kind {
			continue
		}

		rec, end, err := extractAt(lines, i, m, tmpl)
		if err != nil {
			dropped = append(dropped, Dropped{
				Kind:   tmpl.Kind,
				ID:     m[2],
				Line:   i + 1,
				Reason: err.Error(),
			})
			continue
		}

		records = append(records, rec)
		i = end - 1 // resume scanning at the line that terminated the record
	}

	return records, dropped
}

// extractAt parses one record whose header sits at lines[start]. It returns
// the record and the index of the first line past it.
func extractAt(lines []string, start int, header []string, tmpl *Template) (Record, int, error) {
	title := tmpl.Title.FindStringSubmatch(header[3])
	if title == nil {
		return Record{}, 0, fmt.Errorf("header title does not match %q template", tmpl.Kind)
	}

	rec := Record{
		Kind:   tmpl.Kind,
		ID:     header[2],
		Title:  title[1:],
		Fields: make(map[string]string, len(tmpl.Fields)),
		Line:   start + 1,
	}

	pos := start + 1
	for fi, field := range tmpl.Fields {
		prefix := "- " + field.Label + ": "

		// The field line must be the next structural line. Blank lines
		// between a header and its fields break the record.
		if pos >= len(lines) || !strings.HasPrefix(lines[pos], prefix) {
			return Record{}, 0, fmt.Errorf("missing field %q", field.Label)
		}

		value := strings.TrimPrefix(lines[pos], prefix)
		pos++

		// A value continues over following lines up to the next declared
		// label, the next known header, or end of document. Minimal text
		// separating this label from the next structural boundary.
		var continuation []string
		for pos < len(lines) {
			line := lines[pos]
			if headerRE.MatchString(line) {
				break
			}
			if fi+1 < len(tmpl.Fields) && strings.HasPrefix(line, "- "+tmpl.Fields[fi+1].Label+": ") {
				break
			}
			if fi+1 == len(tmpl.Fields) {
				break // last field stays single-line; trailing prose belongs to the document
			}
			continuation = append(continuation, line)
			pos++
		}
		if len(continuation) > 0 {
			value = value + "\n" + strings.Join(continuation, "\n")
		}

		if field.Backquoted {
			unquoted, ok := unquote(value)
			if !ok {
				return Record{}, 0, fmt.Errorf("field %q is not a back-quoted command", field.Label)
			}
			// Back-quoted values keep embedded whitespace verbatim.
			rec.Fields[field.Label] = unquoted
		} else {
			rec.Fields[field.Label] = strings.TrimSpace(value)
		}
	}

	return rec, pos, nil
}

// unquote strips a single pair of back-quotes around a command value.
// The inner text must not itself contain a back-quote.
func unquote(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if len(v) < 2 || v[0] != '`' || v[len(v)-1] != '`' {
		return "", false
	}
	inner := v[1 : len(v)-1]
	if strings.Contains(inner, "`") {
		return "", false
	}
	return inner, true
}

// IsHeader reports whether the line is a record header of any known kind,
// returning the kind and id when it is.
func IsHeader(line string) (kind, id string, ok bool) {
	m := headerRE.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
