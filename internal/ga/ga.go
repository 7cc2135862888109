package ga

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/route"
)

// stagnationLimit ends the search after this many generations without a
// better best fitness.
const stagnationLimit = 20

// onTimeBias is the probability that initialization picks among a cargo's
// on-time options when any exist.
const onTimeBias = 0.7

// Result is the outcome of one optimization run.
type Result struct {
	Best        Individual
	Plan        *Plan
	Generations int
	Alerts      []model.Alert
}

// Optimize runs the genetic search. All randomness flows from the single
// seed through one generator owned by the orchestrator; fitness evaluation
// fans out to a worker pool and lands in an index-addressed slice, so
// scheduling cannot change the result. Cancellation and the wall-clock
// budget are checked at each generation barrier.
func Optimize(ctx context.Context, cat *route.Catalog, flights map[string]*model.Flight, cfg config.Planner, seed int64) (*Result, error) {
	rng := rand.New(rand.NewSource(seed))
	genes := len(cat.CargoIDs)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eval := func(ind Individual) float64 {
		return Simulate(ind, cat, flights, cfg.Knapsack).Fitness
	}

	var deadline time.Time
	if cfg.OptimizationBudgetMs > 0 {
		deadline = time.Now().Add(time.Duration(cfg.OptimizationBudgetMs) * time.Millisecond)
	}

	pop := make([]Individual, cfg.PopulationSize)
	for i := range pop {
		pop[i] = randomIndividual(rng, cat, genes)
	}
	fitness := evaluateAll(pop, workers, eval)

	best := make(Individual, genes)
	copy(best, pop[argmax(fitness)])
	bestFitness := fitness[argmax(fitness)]

	res := &Result{Generations: 0}
	stagnant := 0
	budgetHit := false

	for gen := 1; gen <= cfg.Generations; gen++ {
		select {
		case <-ctx.Done():
			res.Best = best
			res.Plan = Simulate(best, cat, flights, cfg.Knapsack)
			res.Plan.Alerts = append(res.Plan.Alerts, res.Alerts...)
			return res, ctx.Err()
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			budgetHit = true
			break
		}

		next := make([]Individual, 0, cfg.PopulationSize)
		elite := make(Individual, genes)
		copy(elite, best)
		next = append(next, elite)

		for len(next) < cfg.PopulationSize {
			a := tournament(rng, pop, fitness, cfg.TournamentSize)
			b := tournament(rng, pop, fitness, cfg.TournamentSize)
			childA, childB := crossover(rng, a, b, cfg.CrossoverRate)
			mutate(rng, childA, cat, cfg.MutationRate)
			next = append(next, childA)
			if len(next) < cfg.PopulationSize {
				mutate(rng, childB, cat, cfg.MutationRate)
				next = append(next, childB)
			}
		}

		pop = next
		fitness = evaluateAll(pop, workers, eval)
		res.Generations = gen

		genBest := argmax(fitness)
		if fitness[genBest] > bestFitness {
			bestFitness = fitness[genBest]
			copy(best, pop[genBest])
			stagnant = 0
		} else {
			stagnant++
			if stagnant >= stagnationLimit {
				break
			}
		}
	}

	if budgetHit {
		res.Alerts = append(res.Alerts, model.Alert{
			Kind:     model.AlertPartialOptimization,
			Severity: model.SeverityInfo,
			Message:  "optimization budget exhausted, returning best plan found so far",
		})
	}

	res.Best = best
	res.Plan = Simulate(best, cat, flights, cfg.Knapsack)
	res.Plan.Alerts = append(res.Plan.Alerts, res.Alerts...)
	return res, nil
}

func randomIndividual(rng *rand.Rand, cat *route.Catalog, genes int) Individual {
	ind := make(Individual, genes)
	for i, id := range cat.CargoIDs {
		options := cat.Options[id]
		onTime := cat.OnTimeCount(id)
		if onTime > 0 && rng.Float64() < onTimeBias {
			ind[i] = rng.Intn(onTime)
		} else {
			ind[i] = rng.Intn(len(options))
		}
	}
	return ind
}

// tournament draws k individuals uniformly and returns a copy of the
// fittest, lower index winning ties.
func tournament(rng *rand.Rand, pop []Individual, fitness []float64, k int) Individual {
	winner := rng.Intn(len(pop))
	for i := 1; i < k; i++ {
		c := rng.Intn(len(pop))
		if fitness[c] > fitness[winner] || (fitness[c] == fitness[winner] && c < winner) {
			winner = c
		}
	}
	out := make(Individual, len(pop[winner]))
	copy(out, pop[winner])
	return out
}

func crossover(rng *rand.Rand, a, b Individual, rate float64) (Individual, Individual) {
	if len(a) >= 2 && rng.Float64() < rate {
		point := 1 + rng.Intn(len(a)-1)
		for i := point; i < len(a); i++ {
			a[i], b[i] = b[i], a[i]
		}
	}
	return a, b
}

func mutate(rng *rand.Rand, ind Individual, cat *route.Catalog, rate float64) {
	for i, id := range cat.CargoIDs {
		if rng.Float64() < rate {
			ind[i] = rng.Intn(len(cat.Options[id]))
		}
	}
}

// evaluateAll computes fitness for a generation on a worker pool. Results
// are written by index; worker scheduling cannot reorder them.
func evaluateAll(pop []Individual, workers int, eval func(Individual) float64) []float64 {
	out := make([]float64, len(pop))
	if workers > len(pop) {
		workers = len(pop)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = eval(pop[i])
			}
		}()
	}
	for i := range pop {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
