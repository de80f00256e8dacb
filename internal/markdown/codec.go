package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

const (
	// Extension is the file extension for book files.
	Extension = ".md"

	// tmpSuffix marks in-flight writes. The watcher ignores these.
	tmpSuffix = ".tmp"

	delimiter = "---"

	headingReview     = "# Review"
	headingHighlights = "# Highlights"
	headingNotes      = "# Private Notes"

	bulletPrefix = "- "
)

// Filename derives the file name for a book title: the slugged title plus
// the markdown extension. Stable for a given title, so renames only happen
// when the title itself changes. A title that slugs to nothing falls back
// to "untitled".
func Filename(title string) string {
	stem := util.Slug(title)
	if stem == "" {
		stem = "untitled"
	}
	return stem + Extension
}

// Codec reads and writes book files.
type Codec struct {
	logger *slog.Logger
}

func NewCodec(logger *slog.Logger) *Codec {
	return &Codec{logger: logger.With("component", "markdown")}
}

// Write renders the document and writes it to path atomically: the content
// goes to a temp file next to the target, which is then renamed into
// place. Readers and the file watcher never observe a half-written file.
func (c *Codec) Write(path string, doc *Document) error {
	data, err := c.render(doc)
	if err != nil {
		return err
	}

	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.IOError("writing book file").WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.IOError("writing book file").WithCause(err)
	}
	return nil
}

// Parse reads and decodes the book file at path.
func (c *Codec) Parse(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError("reading book file").WithCause(err)
	}
	doc, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses raw file content into a Document. The content must open
// with a frontmatter block delimited by "---" markers; the body after the
// closing marker is scanned for the known section headings.
func (c *Codec) Decode(data []byte) (*Document, error) {
	content := string(data)
	if !strings.HasPrefix(content, delimiter) {
		return nil, errors.ParseError("missing frontmatter delimiter")
	}

	parts := strings.SplitN(content, delimiter, 3)
	if len(parts) < 3 {
		return nil, errors.ParseError("unterminated frontmatter block")
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, errors.ParseError("invalid frontmatter").WithCause(err)
	}

	doc := &Document{Frontmatter: fm}
	body := strings.TrimSpace(parts[2])
	if body != "" {
		c.decodeSections(body, doc)
	}
	return doc, nil
}

func (c *Codec) render(doc *Document) ([]byte, error) {
	fmBytes, err := yaml.Marshal(doc.Frontmatter)
	if err != nil {
		return nil, errors.Internal("encoding frontmatter").WithCause(err)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(fmBytes)
	buf.WriteString(delimiter + "\n")

	writeSection := func(heading, text string) {
		buf.WriteString("\n" + heading + "\n\n")
		buf.WriteString(strings.TrimSpace(text))
		buf.WriteString("\n")
	}

	if doc.Review != "" {
		writeSection(headingReview, doc.Review)
	}
	if len(doc.Highlights) > 0 {
		buf.WriteString("\n" + headingHighlights + "\n\n")
		for _, h := range doc.Highlights {
			buf.WriteString(bulletPrefix + h + "\n")
		}
	}
	if doc.Notes != "" {
		writeSection(headingNotes, doc.Notes)
	}

	return buf.Bytes(), nil
}

// decodeSections locates the known headings in the body and assigns each
// one the text between it and the next-occurring heading. Ordering in the
// file does not matter; unknown headings become part of whichever known
// section precedes them.
func (c *Codec) decodeSections(body string, doc *Document) {
	type section struct {
		heading string
		start   int
	}

	var found []section
	for _, heading := range []string{headingReview, headingHighlights, headingNotes} {
		if idx := strings.Index(body, heading); idx >= 0 {
			found = append(found, section{heading, idx})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })

	for i, sec := range found {
		contentStart := sec.start + len(sec.heading)
		end := len(body)
		if i+1 < len(found) {
			end = found[i+1].start
		}
		text := strings.TrimSpace(body[contentStart:end])

		switch sec.heading {
		case headingReview:
			doc.Review = text
		case headingHighlights:
			doc.Highlights = parseBullets(text)
		case headingNotes:
			doc.Notes = text
		}
	}
}

// parseBullets extracts the bulleted entries from a highlights section.
// Non-bullet lines are ignored.
func parseBullets(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, bulletPrefix) {
			continue
		}
		entry := strings.TrimSpace(strings.TrimPrefix(line, bulletPrefix))
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
