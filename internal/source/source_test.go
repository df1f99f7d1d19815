package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDF struct {
	text      string
	textErr   error
	pages     [][]byte
	renderErr error
	rendered  int
}

func (f *fakePDF) Text([]byte) (string, error) { return f.text, f.textErr }

func (f *fakePDF) Render(context.Context, []byte) ([][]byte, error) {
	f.rendered++
	return f.pages, f.renderErr
}

func TestEmptyInputsAreInputErrors(t *testing.T) {
	a := NewAdapter(&fakePDF{}, 100)
	cases := []Request{
		{Mode: ModeTopic, Topic: "   "},
		{Mode: ModeText},
		{Mode: ModeBulk, Text: "\n\t"},
		{Mode: ModeFile, FileName: "notes.pdf"},
		{Mode: ModeFile, FileName: "slides.pptx", File: []byte("x")},
		{Mode: ModeFile, FileName: "empty.txt", File: []byte("  ")},
		{Mode: "carrier-pigeon", Topic: "x"},
	}
	for _, req := range cases {
		_, err := a.Build(context.Background(), req)
		var ie *InputError
		assert.True(t, errors.As(err, &ie), "%+v: got %v", req, err)
	}
}

func TestTopicPrompt(t *testing.T) {
	a := NewAdapter(nil, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeTopic, Topic: "Photosynthesis", Count: 500, Language: "Hindi"})
	require.NoError(t, err)
	assert.Contains(t, p.Prompt, "Create 50 multiple-choice questions about: Photosynthesis")
	assert.Contains(t, p.Prompt, "in Hindi")
	assert.Contains(t, p.Prompt, `"answer": integer 0-3`)
	assert.Empty(t, p.Images)
}

func TestBulkPromptKeepsText(t *testing.T) {
	a := NewAdapter(nil, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeBulk, Text: "1. What is 2+2? a) 3 b) 4"})
	require.NoError(t, err)
	assert.Contains(t, p.Prompt, "without inventing new ones")
	assert.True(t, strings.HasSuffix(p.Prompt, "1. What is 2+2? a) 3 b) 4"))
}

func TestImageUpload(t *testing.T) {
	a := NewAdapter(nil, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeFile, FileName: "Board.JPG", File: []byte{0xff, 0xd8}})
	require.NoError(t, err)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "image/jpeg", p.Images[0].MIME)
}

func TestTextUpload(t *testing.T) {
	a := NewAdapter(nil, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeFile, FileName: "notes.md", File: []byte("# Cells\nMitochondria")})
	require.NoError(t, err)
	assert.Contains(t, p.Prompt, "Mitochondria")
	assert.Contains(t, p.Prompt, "Create 10 ")
}

func TestPDFWithTextLayer(t *testing.T) {
	f := &fakePDF{text: strings.Repeat("cell biology ", 20)}
	a := NewAdapter(f, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeFile, FileName: "ch1.pdf", File: []byte("%PDF")})
	require.NoError(t, err)
	assert.Contains(t, p.Prompt, "cell biology")
	assert.Empty(t, p.Images)
	assert.Equal(t, 0, f.rendered)
}

func TestScannedPDFFallsBackToImages(t *testing.T) {
	f := &fakePDF{text: "p1", pages: [][]byte{[]byte("png1"), []byte("png2")}}
	a := NewAdapter(f, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeFile, FileName: "scan.pdf", File: []byte("%PDF")})
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "image/png", p.Images[1].MIME)
	assert.Contains(t, p.Prompt, "attached page images")
}

func TestRenderFailureUsesShortText(t *testing.T) {
	f := &fakePDF{text: "short", renderErr: errors.New("pdftoppm not found in PATH")}
	a := NewAdapter(f, 100)
	p, err := a.Build(context.Background(), Request{Mode: ModeFile, FileName: "s.pdf", File: []byte("%PDF")})
	require.NoError(t, err)
	assert.Contains(t, p.Prompt, "short")
}

func TestUnreadablePDF(t *testing.T) {
	f := &fakePDF{textErr: errors.New("malformed"), renderErr: errors.New("exit 1")}
	a := NewAdapter(f, 100)
	_, err := a.Build(context.Background(), Request{Mode: ModeFile, FileName: "bad.pdf", File: []byte("junk")})
	var ie *InputError
	assert.ErrorAs(t, err, &ie)

	f = &fakePDF{renderErr: errors.New("exit 1")}
	_, err = NewAdapter(f, 100).Build(context.Background(), Request{Mode: ModeFile, FileName: "blank.pdf", File: []byte("%PDF")})
	require.Error(t, err)
	assert.False(t, errors.As(err, &ie), "render failure on a valid file is not the user's fault")
}
