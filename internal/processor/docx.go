package processor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const (
	MimeTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	mainDocumentPart = "word/document.xml"
)

// Document is an opened Word-processing package. Only the text runs of the
// main document, headers and footers are editable; every other part is
// copied through unchanged on write.
type Document struct {
	files []*zip.File
	parts map[string]*part
}

// part is one XML part split into raw markup chunks and editable text nodes.
type part struct {
	chunks     []chunk
	paragraphs []*Paragraph
}

type chunk struct {
	raw  string
	text *textNode
}

type textNode struct {
	openTag string
	value   string
}

// Paragraph is an ordered group of text runs (w:t) inside one w:p element.
type Paragraph struct {
	nodes []*textNode
}

// Text returns the paragraph's visible text with all runs joined.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, n := range p.nodes {
		sb.WriteString(n.value)
	}
	return sb.String()
}

// SetText puts s into the first run and empties the rest. Paragraphs
// without runs are left unchanged.
func (p *Paragraph) SetText(s string) {
	if len(p.nodes) == 0 {
		return
	}
	p.nodes[0].value = s
	p.nodes[0].openTag = `<w:t xml:space="preserve">`
	for _, n := range p.nodes[1:] {
		n.value = ""
	}
}

// OpenBytes parses a .docx held in memory.
func OpenBytes(data []byte) (*Document, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

func Open(r io.ReaderAt, size int64) (*Document, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx file: %w", err)
	}

	doc := &Document{
		files: reader.File,
		parts: make(map[string]*part),
	}

	for _, file := range reader.File {
		if !isTextPart(file.Name) {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		p, err := parsePart(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file.Name, err)
		}
		doc.parts[file.Name] = p
	}

	if _, ok := doc.parts[mainDocumentPart]; !ok {
		return nil, fmt.Errorf("failed to open docx file: missing %s", mainDocumentPart)
	}
	return doc, nil
}

func isTextPart(name string) bool {
	if name == mainDocumentPart {
		return true
	}
	dir, base := path.Split(name)
	if dir != "word/" || path.Ext(base) != ".xml" {
		return false
	}
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func readZipFile(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parsePart scans the markup for w:p and w:t elements. It does not build a
// full XML tree; everything other than text node content is kept verbatim.
func parsePart(content string) (*part, error) {
	p := &part{}
	// paragraphs nest inside text boxes; runs belong to the innermost open one
	var open []*Paragraph
	rawStart := 0
	pos := 0

	for {
		lt := strings.IndexByte(content[pos:], '<')
		if lt == -1 {
			break
		}
		lt += pos
		gt := strings.IndexByte(content[lt:], '>')
		if gt == -1 {
			return nil, fmt.Errorf("unterminated tag at offset %d", lt)
		}
		gt += lt
		tag := content[lt : gt+1]
		name := tagName(tag)
		selfClosing := strings.HasSuffix(tag, "/>")

		switch {
		case name == "w:p" && !selfClosing:
			para := &Paragraph{}
			p.paragraphs = append(p.paragraphs, para)
			open = append(open, para)
		case name == "/w:p":
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		case name == "w:t" && !selfClosing:
			end := strings.Index(content[gt+1:], "</w:t>")
			if end == -1 {
				return nil, fmt.Errorf("unterminated text run at offset %d", lt)
			}
			end += gt + 1
			value, err := unescapeText(content[gt+1 : end])
			if err != nil {
				return nil, err
			}
			node := &textNode{openTag: tag, value: value}
			p.chunks = append(p.chunks, chunk{raw: content[rawStart:lt]}, chunk{text: node})
			if len(open) > 0 {
				current := open[len(open)-1]
				current.nodes = append(current.nodes, node)
			}
			pos = end + len("</w:t>")
			rawStart = pos
			continue
		}
		pos = gt + 1
	}

	p.chunks = append(p.chunks, chunk{raw: content[rawStart:]})
	return p, nil
}

func tagName(tag string) string {
	name := tag[1:]
	if i := strings.IndexAny(name, " \t\r\n>"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSuffix(name, "/")
}

func unescapeText(s string) (string, error) {
	if !strings.Contains(s, "&") {
		return s, nil
	}
	var sb strings.Builder
	dec := xml.NewDecoder(strings.NewReader("<t>" + s + "</t>"))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("invalid text run %q: %w", s, err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			sb.Write(cd)
		}
	}
	return sb.String(), nil
}

func (p *part) render() string {
	var sb strings.Builder
	for _, c := range p.chunks {
		if c.text == nil {
			sb.WriteString(c.raw)
			continue
		}
		sb.WriteString(c.text.openTag)
		xml.EscapeText(&sb, []byte(c.text.value))
		sb.WriteString("</w:t>")
	}
	return sb.String()
}

// Paragraphs returns the paragraphs of the main document followed by those
// of headers and footers, in package order.
func (d *Document) Paragraphs() []*Paragraph {
	paragraphs := append([]*Paragraph(nil), d.parts[mainDocumentPart].paragraphs...)
	for _, file := range d.files {
		if file.Name == mainDocumentPart {
			continue
		}
		if p, ok := d.parts[file.Name]; ok {
			paragraphs = append(paragraphs, p.paragraphs...)
		}
	}
	return paragraphs
}

// Text returns the main document's paragraphs joined by newlines.
func (d *Document) Text() string {
	var lines []string
	for _, p := range d.parts[mainDocumentPart].paragraphs {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n")
}

// WriteTo serializes the package, rendering edited parts and copying the
// rest byte for byte.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, file := range d.files {
		p, ok := d.parts[file.Name]
		if !ok {
			if err := zw.Copy(file); err != nil {
				return cw.n, fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return cw.n, fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := io.WriteString(fw, p.render()); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish docx archive: %w", err)
	}
	return cw.n, nil
}

// Bytes is WriteTo into a buffer.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Landscape reports the page orientation of the document's last section:
// an explicit w:orient wins, otherwise width greater than height.
func (d *Document) Landscape() bool {
	content := d.parts[mainDocumentPart].render()
	sectStart := strings.LastIndex(content, "<w:sectPr")
	if sectStart == -1 {
		return false
	}
	pgSzStart := strings.Index(content[sectStart:], "<w:pgSz")
	if pgSzStart == -1 {
		return false
	}
	pgSzStart += sectStart
	pgSzEnd := strings.Index(content[pgSzStart:], ">")
	if pgSzEnd == -1 {
		return false
	}
	tag := content[pgSzStart : pgSzStart+pgSzEnd]

	if orient := attr(tag, "w:orient"); orient != "" {
		return orient == "landscape"
	}
	width, errW := strconv.ParseFloat(attr(tag, "w:w"), 64)
	height, errH := strconv.ParseFloat(attr(tag, "w:h"), 64)
	if errW != nil || errH != nil {
		return false
	}
	return width > height
}

func attr(tag, name string) string {
	start := strings.Index(tag, " "+name+`="`)
	if start == -1 {
		return ""
	}
	start += len(name) + 3
	end := strings.IndexByte(tag[start:], '"')
	if end == -1 {
		return ""
	}
	return tag[start : start+end]
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
