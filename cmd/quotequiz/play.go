package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jbpratt/quotes/internal/quiz"
)

var ratingText = map[quiz.Rating]string{
	quiz.RatingExpert:       "Amazing! You are an expert!",
	quiz.RatingGood:         "Very good! Keep it up!",
	quiz.RatingFair:         "Good job! Practice some more!",
	quiz.RatingKeepStudying: "Keep studying!",
}

// play runs sessions on the terminal until the player declines another round
// or input ends.
func play(
	ctx context.Context,
	logger *zap.SugaredLogger,
	in io.Reader,
	out io.Writer,
	source quiz.Source,
	opts ...quiz.SessionOption,
) error {
	advanced := make(chan quiz.Snapshot, 1)
	opts = append(opts, quiz.WithOnAdvance(func(s quiz.Snapshot) { advanced <- s }))
	session := quiz.NewSession(logger, source, opts...)
	defer session.Stop()

	scanner := bufio.NewScanner(in)

	for {
		records := session.Start(ctx)
		if len(records) == 0 {
			fmt.Fprintln(out, "No quotes available.")
			return nil
		}
		fmt.Fprintf(out, "Quote quiz: %s questions await you!\n", humanize.Comma(int64(len(records))))

		snap := session.Snapshot()
		for snap.State != quiz.Finished {
			record, err := session.Current()
			if err != nil {
				return err
			}
			options, err := session.Options()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nQuestion %d/%d  (%d points)\n%q\nWho said it?\n", snap.Position+1, snap.Total, snap.Score, record.Phrase)
			for idx, opt := range options {
				fmt.Fprintf(out, "  %d) %s\n", idx+1, opt)
			}
			fmt.Fprint(out, "> ")

			if !scanner.Scan() {
				return scanner.Err()
			}

			choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || choice < 1 || choice > len(options) {
				fmt.Fprintf(out, "pick a number between 1 and %d\n", len(options))
				continue
			}

			res, err := session.Submit(options[choice-1])
			if err != nil {
				return err
			}

			if res.Correct {
				fmt.Fprintln(out, "Correct!")
			} else {
				fmt.Fprintf(out, "Wrong, it was %s.\n", res.Answer)
			}

			if res.Snapshot.State != quiz.ShowingFeedback {
				snap = res.Snapshot
				continue
			}

			select {
			case snap = <-advanced:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		summary := session.Summary()
		fmt.Fprintf(out, "\nFinished! %d/%d, you got %d%% right. %s\n", summary.Score, summary.Total, summary.Percent(), ratingText[summary.Rating()])
		fmt.Fprint(out, "Play again? [y/N] ")

		if !scanner.Scan() {
			return scanner.Err()
		}
		if answer := strings.ToLower(strings.TrimSpace(scanner.Text())); answer != "y" && answer != "yes" {
			return nil
		}
	}
}
