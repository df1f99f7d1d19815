package attempt

type QuestionView struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Subject string   `json:"subject"`
	Topic   string   `json:"topic"`
}

// View is what the test-taking screen needs. It never carries answer keys.
type View struct {
	SessionID    string         `json:"session_id"`
	TestID       string         `json:"test_id"`
	TestName     string         `json:"test_name"`
	Current      int            `json:"current"`
	Total        int            `json:"total"`
	Question     QuestionView   `json:"question"`
	Selection    *int           `json:"selection"`
	Palette      []Status       `json:"palette"`
	Summary      map[Status]int `json:"summary"`
	RemainingSec int            `json:"remaining_sec"`
}

func (s *Session) View() View {
	q := s.test.Questions[s.current]
	v := View{
		SessionID: s.ID,
		TestID:    s.test.ID,
		TestName:  s.test.Name,
		Current:   s.current,
		Total:     len(s.statuses),
		Question: QuestionView{
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
			Subject: q.Subject,
			Topic:   q.Topic,
		},
		Selection:    clonePtr(s.selection),
		Palette:      s.Statuses(),
		Summary:      map[Status]int{},
		RemainingSec: s.Remaining(),
	}
	for _, st := range s.statuses {
		v.Summary[st]++
	}
	return v
}
