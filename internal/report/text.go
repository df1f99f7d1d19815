package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

const optionLetters = "ABCDEFGH"

// WriteText renders a plain-text report of one attempt: a summary followed by every
// question with the correct and chosen options marked.
func WriteText(w io.Writer, a quiz.Attempt) error {
	bw := bufio.NewWriter(w)
	r := ForAttempt(a)

	fmt.Fprintf(bw, "Test: %s\n", a.Test.Name)
	fmt.Fprintf(bw, "Completed: %s\n", a.CompletedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(bw, "Score: %.2f%%\n", a.Score)
	fmt.Fprintf(bw, "Accuracy: %.2f%%\n", r.Accuracy)
	fmt.Fprintf(bw, "Correct: %d  Incorrect: %d  Unanswered: %d  Total: %d\n",
		a.Correct, a.Incorrect, a.Unanswered, a.TotalQuestions)
	fmt.Fprintf(bw, "Marking: +%g / -%g\n", a.Test.Marks(), a.Test.NegativeMarking)
	fmt.Fprintf(bw, "Time taken: %s\n", time.Duration(a.TotalTime)*time.Second)

	if len(r.Subjects) > 0 {
		bw.WriteString("\nBy subject:\n")
		for _, s := range r.Subjects {
			fmt.Fprintf(bw, "  %s: %d/%d (%.2f%%)\n", s.Name, s.Correct, s.Total, s.Accuracy)
			for _, t := range s.Topics {
				fmt.Fprintf(bw, "    %s: %d/%d\n", t.Name, t.Correct, t.Total)
			}
		}
	}

	bw.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	for i, q := range a.Test.Questions {
		fmt.Fprintf(bw, "\nQ%d. %s\n", i+1, q.Prompt)
		if q.Subject != "" || q.Topic != "" {
			fmt.Fprintf(bw, "    [%s / %s]\n", q.Subject, q.Topic)
		}
		for j, opt := range q.Options {
			mark := " "
			var notes []string
			if j == q.Answer {
				mark = "*"
				notes = append(notes, "correct")
			}
			if a.Answered(i) && *a.Answers[i] == j {
				if j != q.Answer {
					mark = "x"
				}
				notes = append(notes, "your answer")
			}
			line := fmt.Sprintf("  %s %c) %s", mark, letter(j), opt)
			if len(notes) > 0 {
				line += "   <- " + strings.Join(notes, ", ")
			}
			bw.WriteString(line + "\n")
		}
		fmt.Fprintf(bw, "  Result: %s", resultLabel(resultOf(a, i)))
		if i < len(a.TimeSpent) {
			fmt.Fprintf(bw, " (%ds)", a.TimeSpent[i])
		}
		bw.WriteString("\n")
		if q.Explanation != "" {
			fmt.Fprintf(bw, "  Explanation: %s\n", q.Explanation)
		}
	}
	return bw.Flush()
}

func letter(i int) byte {
	if i < len(optionLetters) {
		return optionLetters[i]
	}
	return '?'
}

func resultLabel(r string) string {
	switch r {
	case ResultCorrect:
		return "Correct"
	case ResultIncorrect:
		return "Incorrect"
	default:
		return "Not answered"
	}
}
