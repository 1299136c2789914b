package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const (
	pageWidth  = 612 // US letter, points
	pageHeight = 792
	marginLeft = 54
	marginTop  = 738
	lineStep   = 14
	linesPage  = 48
	wrapWidth  = 92
)

// PDFRenderer writes a plain-text PDF 1.4 document with the standard
// Helvetica base font, so the output needs no font embedding and opens in any
// viewer. Content is ASCII; non-ASCII runes are replaced before encoding.
type PDFRenderer struct {
	now func() time.Time
}

// NewPDFRenderer returns a renderer stamping reports with the current time.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: time.Now}
}

// Render builds the report document. The first bytes are always "%PDF".
func (r *PDFRenderer) Render(input RenderInput) ([]byte, error) {
	lines := r.lines(input)
	return writePDF(paginate(lines)), nil
}

func (r *PDFRenderer) lines(input RenderInput) []string {
	lines := []string{
		"Grading Report",
		"",
		"Job:       " + input.JobID,
		"Attempt:   " + input.AttemptID,
		"User:      " + input.UserID,
		"Generated: " + r.now().UTC().Format(time.RFC3339),
		"",
		fmt.Sprintf("Overall score: %.2f (%s)", input.Overall.Score, input.Overall.Band),
	}
	if input.Overall.Notes != "" {
		lines = append(lines, wrap("Notes: "+input.Overall.Notes, wrapWidth)...)
	}
	lines = append(lines, "", "Per-question results", strings.Repeat("-", 60))

	section := ""
	first := true
	for _, res := range orderedResults(input.Results) {
		name := "General"
		if res.Section != nil {
			name = *res.Section
		}
		if name != section || first {
			if !first {
				lines = append(lines, "")
			}
			lines = append(lines, "Section: "+name)
			section = name
			first = false
		}
		lines = append(lines, fmt.Sprintf("  %s #%d  score %.2f", res.QuestionType, res.QuestionID, res.Score))
		for _, l := range wrap(res.Rationale, wrapWidth-4) {
			lines = append(lines, "    "+l)
		}
		if len(res.Tags) > 0 {
			lines = append(lines, "    tags: "+strings.Join(res.Tags, ", "))
		}
	}
	return lines
}

// wrap splits text into lines of at most width characters on word boundaries.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

func paginate(lines []string) [][]string {
	if len(lines) == 0 {
		return [][]string{nil}
	}
	var pages [][]string
	for start := 0; start < len(lines); start += linesPage {
		end := start + linesPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	return pages
}

// writePDF assembles a single-font PDF with one content stream per page and a
// correct xref table.
func writePDF(pages [][]string) []byte {
	// Objects: 1 catalog, 2 pages, 3 font, then per page one Page object and
	// one content stream.
	total := 3 + 2*len(pages)
	offsets := make([]int, total+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, page := range pages {
		pageID := 4 + 2*i
		streamID := pageID + 1
		writeObj(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, streamID))

		stream := contentStream(page)
		writeObj(streamID, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= total; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xrefStart)
	return buf.Bytes()
}

func contentStream(lines []string) string {
	var sb strings.Builder
	sb.WriteString("BT\n/F1 10 Tf\n")
	y := marginTop
	for _, line := range lines {
		fmt.Fprintf(&sb, "1 0 0 1 %d %d Tm\n(%s) Tj\n", marginLeft, y, escapePDFText(line))
		y -= lineStep
	}
	sb.WriteString("ET\n")
	return sb.String()
}

// escapePDFText escapes PDF string delimiters and drops non-ASCII runes,
// which the base Helvetica encoding cannot represent.
func escapePDFText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r >= 32 && r < 127:
			sb.WriteRune(r)
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}
