package source

import (
	"fmt"
	"strings"
)

type promptOpts struct {
	count      int
	difficulty string
	language   string
}

const outputContract = `Respond with a JSON array only, no prose and no code fences. Each element must be:
{"question": string, "options": [4 strings], "answer": integer 0-3 (index of the correct option),
 "explanation": string, "subject": string, "topic": string}`

func (o promptOpts) header(b *strings.Builder) {
	if o.difficulty != "" {
		fmt.Fprintf(b, "Difficulty: %s.\n", o.difficulty)
	}
	if o.language != "" {
		fmt.Fprintf(b, "Write every question, option and explanation in %s.\n", o.language)
	}
}

func topicPrompt(topic string, o promptOpts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d multiple-choice questions about: %s\n", o.count, topic)
	o.header(&b)
	b.WriteString(outputContract)
	return b.String()
}

func contentPrompt(text string, o promptOpts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d multiple-choice questions that test understanding of the material below.\n", o.count)
	o.header(&b)
	b.WriteString(outputContract)
	b.WriteString("\n\nMaterial:\n")
	b.WriteString(text)
	return b.String()
}

func bulkPrompt(text string, o promptOpts) string {
	var b strings.Builder
	b.WriteString("The text below contains questions that are already written, possibly with options and answers.\n")
	b.WriteString("Convert every question into the structure below without inventing new ones. ")
	b.WriteString("Where the answer is not given, work it out. Where an explanation is missing, write a short one.\n")
	if o.language != "" {
		fmt.Fprintf(&b, "Keep the text in %s.\n", o.language)
	}
	b.WriteString(outputContract)
	b.WriteString("\n\nQuestions:\n")
	b.WriteString(text)
	return b.String()
}

func imagePrompt(o promptOpts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d multiple-choice questions from the content of the attached page images.\n", o.count)
	o.header(&b)
	b.WriteString(outputContract)
	return b.String()
}
