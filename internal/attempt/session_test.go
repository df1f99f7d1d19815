package attempt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStatuses(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		s, err := Start(sampleTest(n), Options{Clock: newFakeClock()})
		require.NoError(t, err)
		st := s.Statuses()
		require.Len(t, st, n)
		assert.Equal(t, NotAnswered, st[0])
		for i := 1; i < n; i++ {
			assert.Equal(t, NotVisited, st[i], "index %d", i)
		}
	}
}

func TestStartEmptyTest(t *testing.T) {
	_, err := Start(sampleTest(0), Options{})
	assert.ErrorIs(t, err, ErrEmptyTest)
}

func TestAnswerCommittedOnNavigation(t *testing.T) {
	s, err := Start(sampleTest(3), Options{Clock: newFakeClock()})
	require.NoError(t, err)

	require.NoError(t, s.Select(2))
	_, ok := s.Answer(0)
	assert.False(t, ok, "answer must not be stored on click")
	assert.Equal(t, NotAnswered, s.status(0))

	assert.True(t, s.Next())
	v, ok := s.Answer(0)
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, Answered, s.status(0))
	assert.Equal(t, NotAnswered, s.status(1))
	assert.Equal(t, NotVisited, s.status(2))

	// coming back restores the selection
	assert.True(t, s.Prev())
	sel, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, 2, sel)
}

func TestClearRevertsAnswered(t *testing.T) {
	s, _ := Start(sampleTest(2), Options{Clock: newFakeClock()})
	require.NoError(t, s.Select(1))
	s.Next()
	s.Prev()
	s.Clear()
	s.Next()
	assert.Equal(t, NotAnswered, s.status(0))
	_, ok := s.Answer(0)
	assert.False(t, ok)
}

func TestMarkForReview(t *testing.T) {
	s, _ := Start(sampleTest(3), Options{Clock: newFakeClock()})

	s.MarkForReview()
	assert.Equal(t, Marked, s.status(0))
	s.Next()
	assert.Equal(t, Marked, s.status(0))

	require.NoError(t, s.Select(0))
	s.MarkForReview()
	assert.Equal(t, MarkedAnswered, s.status(1))
	s.Next()
	assert.Equal(t, MarkedAnswered, s.status(1))

	// answering a marked question keeps the mark
	s.Navigate(0)
	require.NoError(t, s.Select(3))
	s.Next()
	assert.Equal(t, MarkedAnswered, s.status(0))
}

func TestClearPolicyOnMarkedAnswered(t *testing.T) {
	cases := []struct {
		policy ClearPolicy
		want   Status
	}{
		{ClearRevertsToMarked, Marked},
		{ClearKeepsMarkedAnswered, MarkedAnswered},
	}
	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			s, _ := Start(sampleTest(2), Options{Clock: newFakeClock(), Policy: tc.policy})
			require.NoError(t, s.Select(1))
			s.MarkForReview()
			s.Next()
			s.Prev()
			s.Clear()
			s.Next()
			assert.Equal(t, tc.want, s.status(0))
			_, ok := s.Answer(0)
			assert.False(t, ok)
		})
	}
}

func TestNavigateBounds(t *testing.T) {
	s, _ := Start(sampleTest(2), Options{Clock: newFakeClock()})
	assert.False(t, s.Prev())
	assert.Equal(t, 0, s.Current())
	assert.True(t, s.Next())
	require.NoError(t, s.Select(1))
	assert.False(t, s.Next(), "next on the last question stays")
	assert.Equal(t, 1, s.Current())
	assert.Equal(t, Answered, s.status(1), "out of range navigation still commits")
	assert.False(t, s.Navigate(99))
	assert.Equal(t, 1, s.Current())
}

func TestTimeAccounting(t *testing.T) {
	clk := newFakeClock()
	s, _ := Start(sampleTest(3), Options{Clock: clk})

	clk.Advance(10 * time.Second)
	s.Next()
	clk.Advance(5 * time.Second)
	s.Prev()
	clk.Advance(3 * time.Second)
	s.Navigate(2)
	clk.Advance(7 * time.Second)

	assert.Equal(t, 13*time.Second, s.Spent(0))
	assert.Equal(t, 5*time.Second, s.Spent(1))

	a := s.Finish()
	assert.Equal(t, []int{13, 5, 7}, a.TimeSpent)
	assert.Equal(t, 25, a.TotalTime)
}

func TestSelectOutOfRange(t *testing.T) {
	s, _ := Start(sampleTest(1), Options{Clock: newFakeClock()})
	assert.ErrorIs(t, s.Select(4), ErrOptionOutOfRange)
	assert.ErrorIs(t, s.Select(-1), ErrOptionOutOfRange)
}

func TestFinishCounts(t *testing.T) {
	s, _ := Start(sampleTest(4), Options{Clock: newFakeClock()})
	// keys are 0,1,2,3
	require.NoError(t, s.Select(0)) // correct
	s.Next()
	require.NoError(t, s.Select(0)) // wrong
	s.Next()
	s.MarkForReview() // unanswered
	s.Next()
	require.NoError(t, s.Select(3)) // correct, committed by Finish

	a := s.Finish()
	assert.Equal(t, 2, a.Correct)
	assert.Equal(t, 1, a.Incorrect)
	assert.Equal(t, 1, a.Unanswered)
	assert.Equal(t, 4, a.TotalQuestions)
	assert.Equal(t, a.TotalQuestions, a.Correct+a.Incorrect+a.Unanswered)
	assert.Equal(t, 50.0, a.Score)
	assert.Equal(t, "t1", a.Test.ID)
}

func TestFinishSnapshotIsDetached(t *testing.T) {
	tst := sampleTest(1)
	s, _ := Start(tst, Options{Clock: newFakeClock()})
	tst.Questions[0].Options[0] = "edited"
	a := s.Finish()
	assert.Equal(t, "a", a.Test.Questions[0].Options[0])
}

func TestActionSequencesKeepTotals(t *testing.T) {
	// a deterministic walk over many action mixes
	for seed := 0; seed < 50; seed++ {
		s, _ := Start(sampleTest(5), Options{Clock: newFakeClock(), Policy: ClearPolicy(seed % 2)})
		x := seed
		for step := 0; step < 40; step++ {
			x = (x*31 + 7) % 101
			switch x % 6 {
			case 0:
				s.Next()
			case 1:
				s.Prev()
			case 2:
				_ = s.Select(x % 4)
			case 3:
				s.Clear()
			case 4:
				s.MarkForReview()
			case 5:
				s.Navigate(x % 7)
			}
		}
		a := s.Finish()
		assert.Equal(t, 5, a.Correct+a.Incorrect+a.Unanswered, "seed %d", seed)
	}
}

func TestViewHidesKeys(t *testing.T) {
	s, _ := Start(sampleTest(2), Options{Clock: newFakeClock()})
	v := s.View()
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, 1, v.Summary[NotAnswered])
	assert.Equal(t, 1, v.Summary[NotVisited])
	assert.Equal(t, []string{"a", "b", "c", "d"}, v.Question.Options)
	assert.Nil(t, v.Selection)
}
