package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal document with one Helvetica text line per page.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	n := len(pages)
	// 1 catalog, 2 page tree, 3 font, then a page and a content stream per page.
	objs := make([]string, 3+2*n)
	kids := make([]string, n)
	for i, text := range pages {
		pageID, contentID := 4+2*i, 5+2*i
		kids[i] = fmt.Sprintf("%d 0 R", pageID)
		objs[pageID-1] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID)
		stream := fmt.Sprintf("BT /F1 12 Tf 20 100 Td (%s) Tj ET", text)
		objs[contentID-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}
	objs[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)
	objs[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestTextReadsPagesInOrder(t *testing.T) {
	e := NewExtractor(0)
	got, err := e.Text(buildPDF(t, "Newton laws of motion", "Conservation of energy"))
	require.NoError(t, err)

	first := strings.Index(got, "Newton laws of motion")
	second := strings.Index(got, "Conservation of energy")
	require.GreaterOrEqual(t, first, 0, got)
	require.Greater(t, second, first, got)
}

func TestTextRejectsGarbage(t *testing.T) {
	e := NewExtractor(0)
	for name, data := range map[string][]byte{
		"empty":     nil,
		"not a pdf": []byte(strings.Repeat("definitely not a document ", 10)),
		"truncated": buildPDF(t, "cut short")[:120],
	} {
		_, err := e.Text(data)
		assert.Error(t, err, name)
	}
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(-1)
	assert.Equal(t, 5, e.MaxPages)
	assert.Equal(t, 1600, e.MaxSide)
	assert.Equal(t, 3, NewExtractor(3).MaxPages)
}

func TestRenderShrinksPagesInOrder(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	e := NewExtractor(2)
	e.MaxSide = 64
	doc := buildPDF(t, "one", "two", "three")

	pages, err := e.Render(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, pages, 2, "capped at MaxPages")
	for i, p := range pages {
		img, err := imaging.Decode(bytes.NewReader(p))
		require.NoError(t, err, "page %d", i+1)
		b := img.Bounds()
		assert.LessOrEqual(t, b.Dx(), 64)
		assert.LessOrEqual(t, b.Dy(), 64)
	}
}

func TestRenderFailsOnGarbage(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	_, err := NewExtractor(1).Render(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)
}
