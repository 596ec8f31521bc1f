package template

import (
	"fmt"
	"os"
	"strings"

	"github.com/riichi-tools/mjview/pkg/types"
)

// The viewer template embeds its event data as a JS template literal
// that the page splits on newlines and JSON.parses line by line. These
// two sentinels bound the placeholder data; everything between them is
// replaced at render time, everything outside is preserved verbatim.
const (
	startMarker = "allActions = `\n"
	endMarker   = "\n    `.trim().split('\\n').map(s => JSON.parse(s))"
)

// TemplateError reports an unreadable template or a marker problem.
// It is fatal for the whole run since all files share one template.
type TemplateError struct {
	Path   string
	Reason string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("template %s: %s", e.Path, e.Reason)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Template is a viewer document loaded once per run and shared
// read-only across all files. The document is split at load time into
// the bytes before and after the injection span, so rendering never
// touches the markup itself.
type Template struct {
	path string
	head string // up to and including startMarker
	tail string // from endMarker to end of document
}

// Load reads the template and locates the injection span. Each marker
// must occur exactly once; zero or multiple occurrences fail loudly
// rather than guessing which span to replace.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateError{Path: path, Reason: "unreadable", Err: err}
	}
	content := string(data)

	if n := strings.Count(content, startMarker); n != 1 {
		return nil, &TemplateError{Path: path, Reason: fmt.Sprintf("expected exactly 1 start marker, found %d", n)}
	}
	if n := strings.Count(content, endMarker); n != 1 {
		return nil, &TemplateError{Path: path, Reason: fmt.Sprintf("expected exactly 1 end marker, found %d", n)}
	}

	start := strings.Index(content, startMarker) + len(startMarker)
	end := strings.Index(content, endMarker)
	if end < start {
		return nil, &TemplateError{Path: path, Reason: "end marker precedes start marker"}
	}

	return &Template{
		path: path,
		head: content[:start],
		tail: content[end:],
	}, nil
}

// Path returns the filesystem path the template was loaded from.
func (t *Template) Path() string {
	return t.path
}

// Render produces the viewer document for one record sequence. The
// records' raw JSON lines are joined with newlines, escaped for the
// script context, and spliced between the markers. Rendering the same
// input twice yields byte-identical output.
func (t *Template) Render(records []types.Record) []byte {
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = rec.Raw
	}
	data := escapeScriptData(strings.Join(lines, "\n"))

	var b strings.Builder
	b.Grow(len(t.head) + len(data) + len(t.tail))
	b.WriteString(t.head)
	b.WriteString(data)
	b.WriteString(t.tail)
	return []byte(b.String())
}

// scriptEscaper rewrites record text so it survives two layers of
// interpretation: the HTML parser scanning script content, and the JS
// template literal the data sits inside. Backslash, backtick and dollar
// are template-literal metacharacters; "</" and "<!" can terminate or
// confuse the surrounding script element; CR would be normalized to LF
// by the JS lexer; U+2028/U+2029 are escaped to keep every byte of the
// round trip explicit. Template-literal escape processing in the
// browser restores the exact original text.
var scriptEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"`", "\\`",
	"$", "\\$",
	"</", "<\\/",
	"<!", "<\\!",
	"\r", "\\r",
	"\u2028", "\\u2028",
	"\u2029", "\\u2029",
)

func escapeScriptData(s string) string {
	return scriptEscaper.Replace(s)
}
