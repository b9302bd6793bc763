package quiz

// DefaultOptionsCount is the number of choices offered per question.
const DefaultOptionsCount = 4

// GenerateOptions returns the correct author mixed with up to count-1
// distractors drawn from authors. Every entry equal to correct is removed
// from the pool first; repeated distractor names are not collapsed, so a
// pool with repeated authors may yield identical options. The result is
// never padded: a small pool gives fewer than count options.
func GenerateOptions(rng Rand, correct string, authors []string, count int) []string {
	pool := make([]string, 0, len(authors))
	for _, author := range authors {
		if author != correct {
			pool = append(pool, author)
		}
	}
	return pickOptions(rng, correct, pool, count)
}

// GenerateDistinctOptions behaves like GenerateOptions but collapses repeated
// distractor names before sampling, so every option is a different string.
func GenerateDistinctOptions(rng Rand, correct string, authors []string, count int) []string {
	seen := map[string]struct{}{correct: {}}
	pool := make([]string, 0, len(authors))
	for _, author := range authors {
		if _, ok := seen[author]; ok {
			continue
		}
		seen[author] = struct{}{}
		pool = append(pool, author)
	}
	return pickOptions(rng, correct, pool, count)
}

func pickOptions(rng Rand, correct string, pool []string, count int) []string {
	if count <= 0 {
		count = DefaultOptionsCount
	}
	if rng == nil {
		rng = newRand()
	}

	wrong := Shuffle(rng, pool)
	if len(wrong) > count-1 {
		wrong = wrong[:count-1]
	}

	options := append([]string{correct}, wrong...)
	return Shuffle(rng, options)
}
