package source

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

type Mode string

const (
	ModeTopic Mode = "topic"
	ModeText  Mode = "text"
	ModeBulk  Mode = "bulk" // questions already written by the user, to be structured
	ModeFile  Mode = "file"
)

const (
	DefaultCount = 10
	MaxCount     = 50
)

// Request is one generation request as submitted by the user.
type Request struct {
	Mode       Mode   `json:"mode"`
	Topic      string `json:"topic,omitempty"`
	Text       string `json:"text,omitempty"`
	Count      int    `json:"count,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Language   string `json:"language,omitempty"`

	FileName string `json:"-"`
	File     []byte `json:"-"`
}

type Image struct {
	MIME string
	Data []byte
}

// Payload is what the model receives: one prompt plus optional page images.
type Payload struct {
	Prompt string
	Images []Image
}

// InputError is a problem with the user's input; nothing was sent anywhere.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErr(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// PDFReader is the PDF capability the adapter needs.
type PDFReader interface {
	Text(data []byte) (string, error)
	Render(ctx context.Context, data []byte) ([][]byte, error)
}

type Adapter struct {
	PDF          PDFReader
	MinTextChars int // below this, a PDF is treated as scanned and rendered
}

func NewAdapter(pdf PDFReader, minTextChars int) *Adapter {
	return &Adapter{PDF: pdf, MinTextChars: minTextChars}
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

var textTypes = map[string]bool{".txt": true, ".md": true, ".csv": true}

// Build turns a request into a single payload for the model.
func (a *Adapter) Build(ctx context.Context, req Request) (Payload, error) {
	opts := promptOpts{count: clampCount(req.Count), difficulty: req.Difficulty, language: req.Language}

	switch req.Mode {
	case ModeTopic:
		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			return Payload{}, inputErr("topic is empty")
		}
		return Payload{Prompt: topicPrompt(topic, opts)}, nil

	case ModeText:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return Payload{}, inputErr("text is empty")
		}
		return Payload{Prompt: contentPrompt(text, opts)}, nil

	case ModeBulk:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return Payload{}, inputErr("no questions pasted")
		}
		return Payload{Prompt: bulkPrompt(text, opts)}, nil

	case ModeFile:
		return a.fromFile(ctx, req, opts)

	default:
		return Payload{}, inputErr("unknown mode %q", req.Mode)
	}
}

func (a *Adapter) fromFile(ctx context.Context, req Request, opts promptOpts) (Payload, error) {
	if len(req.File) == 0 {
		return Payload{}, inputErr("no file uploaded")
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))

	if mime, ok := imageTypes[ext]; ok {
		return Payload{
			Prompt: imagePrompt(opts),
			Images: []Image{{MIME: mime, Data: req.File}},
		}, nil
	}
	if textTypes[ext] {
		if !utf8.Valid(req.File) {
			return Payload{}, inputErr("%s is not valid UTF-8 text", req.FileName)
		}
		text := strings.TrimSpace(string(req.File))
		if text == "" {
			return Payload{}, inputErr("%s is empty", req.FileName)
		}
		return Payload{Prompt: contentPrompt(text, opts)}, nil
	}
	if ext != ".pdf" {
		return Payload{}, inputErr("unsupported file type %q", ext)
	}
	if a.PDF == nil {
		return Payload{}, inputErr("PDF uploads are not enabled")
	}

	text, err := a.PDF.Text(req.File)
	if err != nil {
		// unreadable text layer; rendering may still work
		log.Printf("source: pdf text extraction failed for %s: %v", req.FileName, err)
	}
	if utf8.RuneCountInString(text) >= a.MinTextChars && text != "" {
		return Payload{Prompt: contentPrompt(text, opts)}, nil
	}

	pages, rerr := a.PDF.Render(ctx, req.File)
	if rerr != nil {
		if text != "" {
			log.Printf("source: rendering %s failed, using its short text layer: %v", req.FileName, rerr)
			return Payload{Prompt: contentPrompt(text, opts)}, nil
		}
		if err != nil {
			return Payload{}, inputErr("could not read %s: %v", req.FileName, err)
		}
		return Payload{}, fmt.Errorf("render %s: %w", req.FileName, rerr)
	}
	p := Payload{Prompt: imagePrompt(opts)}
	for _, pg := range pages {
		p.Images = append(p.Images, Image{MIME: "image/png", Data: pg})
	}
	return p, nil
}

func clampCount(n int) int {
	switch {
	case n <= 0:
		return DefaultCount
	case n > MaxCount:
		return MaxCount
	default:
		return n
	}
}
