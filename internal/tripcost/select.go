package tripcost

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jengzang/trip-hazards/internal/models"
)

// Loader returns the path of a candidate trip
type Loader func(ctx context.Context, id string) (models.Path, error)

// Result identifies the cheapest candidate
type Result struct {
	Index int    `json:"index"` // position in the candidate list
	ID    string `json:"id"`
	Score Score  `json:"score"`
}

// SelectBest loads and scores every candidate in order and returns the one
// with the lowest cost. Ties go to the earlier candidate. The first load or
// scoring error stops the selection.
func SelectBest(ctx context.Context, ids []string, load Loader, p Params) (Result, error) {
	if len(ids) == 0 {
		return Result{}, models.ErrEmptyInput
	}

	var best Result
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		score, err := evaluateCandidate(ctx, id, load, p)
		if err != nil {
			return Result{}, err
		}
		if i == 0 || score.Cost < best.Score.Cost {
			best = Result{Index: i, ID: id, Score: score}
		}
	}
	return best, nil
}

// SelectBestConcurrent scores candidates on up to workers goroutines. The
// outcome is the same as SelectBest: ties go to the earlier candidate and,
// when several candidates fail, the error of the earliest one is returned.
func SelectBestConcurrent(ctx context.Context, ids []string, load Loader, p Params, workers int) (Result, error) {
	if len(ids) == 0 {
		return Result{}, models.ErrEmptyInput
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	scores := make([]Score, len(ids))
	errs := make([]error, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i], errs[i] = evaluateCandidate(ctx, ids[i], load, p)
			}
		}()
	}

feed:
	for i := range ids {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var best Result
	for i, id := range ids {
		if errs[i] != nil {
			return Result{}, errs[i]
		}
		if i == 0 || scores[i].Cost < best.Score.Cost {
			best = Result{Index: i, ID: id, Score: scores[i]}
		}
	}
	return best, nil
}

func evaluateCandidate(ctx context.Context, id string, load Loader, p Params) (Score, error) {
	path, err := load(ctx, id)
	if err != nil {
		return Score{}, fmt.Errorf("failed to load trip %s: %w", id, err)
	}
	score, err := Evaluate(path, p)
	if err != nil {
		return Score{}, fmt.Errorf("failed to score trip %s: %w", id, err)
	}
	return score, nil
}
