package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/seabattle/game/engine"
)

// Options controls a simulation run
type Options struct {
	Matches int
	P1      engine.Difficulty
	P2      engine.Difficulty
	Workers int
	Seed    int64
}

// MatchResult is the outcome of one simulated match
type MatchResult struct {
	Seed   int64
	Winner engine.Side
	Fired  map[engine.Side]int
	Hits   map[engine.Side]int
}

// Shots returns the number of shots fired by both sides
func (r MatchResult) Shots() int {
	return r.Fired[engine.SidePlayer1] + r.Fired[engine.SidePlayer2]
}

// Summary aggregates a simulation run
type Summary struct {
	Options  Options
	Matches  int
	Wins     map[engine.Side]int
	Fired    map[engine.Side]int
	Hits     map[engine.Side]int
	MinShots int
	MaxShots int
	Elapsed  time.Duration
}

// AvgShots returns the mean number of shots per match
func (s *Summary) AvgShots() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Fired[engine.SidePlayer1]+s.Fired[engine.SidePlayer2]) / float64(s.Matches)
}

// Accuracy returns the share of side's shots that hit
func (s *Summary) Accuracy(side engine.Side) float64 {
	if s.Fired[side] == 0 {
		return 0
	}
	return float64(s.Hits[side]) / float64(s.Fired[side])
}

// Report renders the summary as text
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matches:   %d (%s)\n", s.Matches, s.Elapsed.Round(time.Millisecond))
	for _, side := range engine.Sides {
		difficulty := s.Options.P1
		if side == engine.SidePlayer2 {
			difficulty = s.Options.P2
		}
		winRate := 0.0
		if s.Matches > 0 {
			winRate = 100 * float64(s.Wins[side]) / float64(s.Matches)
		}
		fmt.Fprintf(&b, "%s (%s): %d wins (%.1f%%), accuracy %.1f%%\n",
			side, difficulty, s.Wins[side], winRate, 100*s.Accuracy(side))
	}
	fmt.Fprintf(&b, "Shots per match: avg %.1f, min %d, max %d\n", s.AvgShots(), s.MinShots, s.MaxShots)
	return b.String()
}

// Run plays opts.Matches matches across a pool of workers. Match seeds are
// drawn from opts.Seed, so a run is reproducible whatever the worker count.
func Run(ctx context.Context, opts Options, logger *log.Logger) (*Summary, error) {
	if opts.Matches <= 0 {
		return nil, fmt.Errorf("matches must be positive, got %d", opts.Matches)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	masterRng := engine.NewRand(opts.Seed)
	seeds := make([]int64, opts.Matches)
	for i := range seeds {
		seeds[i] = masterRng.Int64()
	}

	difficulties := map[engine.Side]engine.Difficulty{
		engine.SidePlayer1: opts.P1,
		engine.SidePlayer2: opts.P2,
	}

	start := time.Now()
	results := make([]MatchResult, opts.Matches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := playMatch(seed, difficulties)
			if err != nil {
				return fmt.Errorf("match %d (seed %d): %w", i, seed, err)
			}
			logger.Debug("match finished", "match", i, "seed", seed, "winner", result.Winner, "shots", result.Shots())
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Options: opts,
		Wins:    map[engine.Side]int{},
		Fired:   map[engine.Side]int{},
		Hits:    map[engine.Side]int{},
	}
	for _, r := range results {
		summary.Matches++
		summary.Wins[r.Winner]++
		for _, side := range engine.Sides {
			summary.Fired[side] += r.Fired[side]
			summary.Hits[side] += r.Hits[side]
		}
		if shots := r.Shots(); summary.MinShots == 0 || shots < summary.MinShots {
			summary.MinShots = shots
		}
		if shots := r.Shots(); shots > summary.MaxShots {
			summary.MaxShots = shots
		}
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// playMatch runs one match between two computer opponents to the end
func playMatch(seed int64, difficulties map[engine.Side]engine.Difficulty) (MatchResult, error) {
	result := MatchResult{
		Seed:  seed,
		Fired: map[engine.Side]int{},
		Hits:  map[engine.Side]int{},
	}

	match, err := engine.NewMatch(&engine.MatchConfig{Name: "Simulation", Type: engine.TwoPlayer})
	if err != nil {
		return result, err
	}

	seedRng := engine.NewRand(seed)
	opponents := map[engine.Side]*engine.Opponent{}
	for _, side := range engine.Sides {
		opponent := engine.NewOpponent(difficulties[side], engine.NewRand(seedRng.Int64()))
		if _, err := opponent.PlaceFleet(match, side); err != nil {
			return result, fmt.Errorf("place %s fleet: %w", side, err)
		}
		opponents[side] = opponent
	}

	for !match.IsOver() {
		side := match.Turn()
		opponent := opponents[side]

		target, err := opponent.NextShot()
		if err != nil {
			return result, fmt.Errorf("%s: %w", side, err)
		}
		shot, _, err := match.Fire(side, target.X, target.Y)
		if err != nil {
			return result, fmt.Errorf("%s fired at (%d,%d): %w", side, target.X, target.Y, err)
		}
		opponent.Observe(engine.FeedbackFrom(shot))

		result.Fired[side]++
		if shot.IsHit() {
			result.Hits[side]++
		}
	}

	result.Winner = match.Winner()
	return result, nil
}
