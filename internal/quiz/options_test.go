package quiz_test

import (
	"math/rand"
	"testing"

	"github.com/jbpratt/quotes/internal/quiz"
	"github.com/stretchr/testify/require"
)

func count(values []string, target string) int {
	var n int
	for _, v := range values {
		if v == target {
			n++
		}
	}
	return n
}

func TestGenerateOptionsSharedAuthor(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	authors := []string{"Mark Twain", "Mark Twain", "Einstein", "Gandhi", "Lincoln"}

	for range 50 {
		options := quiz.GenerateOptions(rng, "Mark Twain", authors, 4)
		require.Len(t, options, 4)
		require.Equal(t, 1, count(options, "Mark Twain"))
		require.ElementsMatch(t, []string{"Mark Twain", "Einstein", "Gandhi", "Lincoln"}, options)
	}
}

func TestGenerateOptionsNoDistractors(t *testing.T) {
	options := quiz.GenerateOptions(rand.New(rand.NewSource(1)), "Gandhi", []string{"Gandhi", "Gandhi"}, 4)
	require.Equal(t, []string{"Gandhi"}, options)
}

func TestGenerateOptionsDefaultCount(t *testing.T) {
	authors := []string{"A", "B", "C", "D", "E", "F"}
	options := quiz.GenerateOptions(rand.New(rand.NewSource(1)), "A", authors, 0)
	require.Len(t, options, quiz.DefaultOptionsCount)
}

func TestGenerateOptionsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	authors := []string{"A", "B", "C", "C", "D", "A", "E"}

	for n := 1; n <= 8; n++ {
		for _, correct := range []string{"A", "C", "E", "Z"} {
			options := quiz.GenerateOptions(rng, correct, authors, n)

			others := len(authors) - count(authors, correct)
			require.Len(t, options, min(n, 1+others))
			require.Equal(t, 1, count(options, correct))
			for _, opt := range options {
				if opt != correct {
					require.Contains(t, authors, opt)
				}
			}
		}
	}
}

func TestGenerateOptionsCorrectPositionUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	authors := []string{"A", "B", "C", "D", "E", "F"}

	const trials = 4000
	positions := make([]int, 4)
	for range trials {
		options := quiz.GenerateOptions(rng, "A", authors, 4)
		for idx, opt := range options {
			if opt == "A" {
				positions[idx]++
			}
		}
	}

	for idx, n := range positions {
		require.InDeltaf(t, trials/4, n, trials/20, "position %d picked %d times", idx, n)
	}
}

func TestGenerateDistinctOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	authors := []string{"Twain", "Twain", "Twain", "Gandhi", "Einstein", "Einstein"}

	for range 50 {
		options := quiz.GenerateDistinctOptions(rng, "Gandhi", authors, 4)
		require.ElementsMatch(t, []string{"Gandhi", "Twain", "Einstein"}, options)
	}
}
