package engine

import (
	"math"
	"math/rand"
	"sync"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
	"bitcoin-abm/src/utils"
)

// Tick dynamics constants. Scenario params scale these, never replace them.
const (
	blockProbability = 0.1
	bipProbability   = 0.01
	difficultyEpoch  = 20

	minHashrate = 50.0
	maxHashrate = 500.0
	minFee      = 1.0
	maxFee      = 500.0

	// Mempool thresholds and block drain, in units of mempool_limit
	feeRaiseThreshold  = 50.0
	feeDecayThreshold  = 10.0
	drainPerBlockMin   = 0.1
	drainPerBlockSpan  = 0.2
	blockBonusPerShare = 0.05
)

// -----------------------------------------------------------------------------
// Engine owns the single mutable simulation state. All mutation goes through
// Reset and Step behind one mutex; snapshots are committed whole, so readers
// never observe a half-applied tick.
// -----------------------------------------------------------------------------

type Engine struct {
	Logger *logger.Logger

	mu               sync.Mutex
	cfg              models.MEngineConfig
	params           modelParams
	state            models.MSnapshot
	rng              *rand.Rand
	backlog          *utils.RingBuffer[models.MSnapshot]
	lastAdjustHeight int64
}

// -----------------------------------------------------------------------------

// NewEngine creates an engine initialized to the default baseline state.
func NewEngine(cfg models.MEngineConfig) *Engine {
	e := &Engine{
		Logger:  logger.NewLogger("Engine"),
		cfg:     cfg,
		backlog: utils.NewRingBuffer[models.MSnapshot](cfg.BacklogCapacity),
	}
	e.resetLocked(nil)
	return e
}

// -----------------------------------------------------------------------------

// Reset reinitializes the state from a params bundle and returns the snapshot.
// Unknown keys are ignored, missing keys fall back to the defaults.
func (e *Engine) Reset(params models.MParams) models.MSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetLocked(params)
}

func (e *Engine) resetLocked(params models.MParams) models.MSnapshot {
	e.params = resolveParams(params, e.cfg.DefaultSeed)
	e.rng = rand.New(rand.NewSource(e.params.seed))
	e.lastAdjustHeight = 0

	e.state = models.MSnapshot{
		Step:    0,
		Running: false,
		Metrics: models.MMetrics{
			BlockHeight: 0,
			Hashrate:    e.params.baseHashrate,
			Difficulty:  1.0,
			MempoolSize: int64(e.params.initialMempool),
			AvgFee:      1.0,
		},
		Activity: models.MActivity{},
	}
	e.backlog.Clear()

	e.Logger.Debug("Reset: seed=%d tx_rate=%.1f mempool_limit=%.0f", e.params.seed, e.params.txRate, e.params.mempoolLimit)
	return e.state
}

// -----------------------------------------------------------------------------

// Step advances the simulation count ticks. count <= 0 is a no-op returning
// the current snapshot. A tick that produces an invalid state is not
// committed: the error is returned and the last good snapshot stays
// authoritative.
func (e *Engine) Step(count int) (models.MSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < count; i++ {
		if err := e.stepOnce(); err != nil {
			return e.state, err
		}
	}
	return e.state, nil
}

// -----------------------------------------------------------------------------

func (e *Engine) stepOnce() error {
	p := e.params
	next := e.state
	nextAdjustHeight := e.lastAdjustHeight

	next.Step++

	// Transaction arrivals
	arrivals := int64(e.rng.Intn(int(p.txRate)*2 + 1))
	next.Metrics.MempoolSize += arrivals
	next.Activity.TransactionsProcessed += arrivals

	// Block production
	blockChance := blockProbability + blockBonusPerShare*p.dominantMinerShare
	if e.rng.Float64() < blockChance {
		next.Metrics.BlockHeight++
		next.Activity.BlocksMined++

		drained := int64(p.mempoolLimit * (drainPerBlockMin + e.rng.Float64()*drainPerBlockSpan))
		if drained > next.Metrics.MempoolSize {
			drained = next.Metrics.MempoolSize
		}
		next.Metrics.MempoolSize -= drained
	}

	// Hashrate drift: base jitter smoothed by miner count, plus growth and
	// reward pressure
	jitter := (-0.02 + e.rng.Float64()*0.05) * math.Sqrt(10/p.minerCount)
	rewardBias := 0.004 * (p.blockReward/6.25 - 1)
	next.Metrics.Hashrate *= 1 + jitter + p.hashrateGrowth + rewardBias
	next.Metrics.Hashrate = math.Max(minHashrate, math.Min(maxHashrate, next.Metrics.Hashrate))

	// Fee market response to mempool pressure
	mempool := float64(next.Metrics.MempoolSize)
	if mempool > feeRaiseThreshold*p.mempoolLimit {
		next.Metrics.AvgFee *= 1 + 0.10*p.feeSensitivity
	} else if mempool < feeDecayThreshold*p.mempoolLimit {
		next.Metrics.AvgFee *= 1 - 0.05*p.feeSensitivity
	}
	next.Metrics.AvgFee = math.Max(minFee, math.Min(maxFee, next.Metrics.AvgFee))

	// Difficulty adjustment once per epoch boundary
	if next.Metrics.BlockHeight > 0 &&
		next.Metrics.BlockHeight%difficultyEpoch == 0 &&
		next.Metrics.BlockHeight != nextAdjustHeight {
		next.Metrics.Difficulty *= math.Pow(next.Metrics.Hashrate/p.baseHashrate, 2*p.difficultyAdjRate)
		nextAdjustHeight = next.Metrics.BlockHeight
	}

	// Occasional protocol proposal
	if e.rng.Float64() < bipProbability*p.bipRate {
		next.Activity.BipsProposed++
	}

	if err := validateSnapshot(&next); err != nil {
		e.Logger.Error("Step %d rejected: %v", next.Step, err)
		return err
	}

	e.state = next
	e.lastAdjustHeight = nextAdjustHeight
	e.backlog.Append(next)
	return nil
}

// -----------------------------------------------------------------------------

// validateSnapshot guards the commit: every numeric field must be finite and
// non-negative, otherwise the tick is discarded.
func validateSnapshot(s *models.MSnapshot) error {
	checks := []struct {
		name  string
		value float64
	}{
		{models.MetricHashrate, s.Metrics.Hashrate},
		{models.MetricDifficulty, s.Metrics.Difficulty},
		{models.MetricAvgFee, s.Metrics.AvgFee},
		{models.MetricMempoolSize, float64(s.Metrics.MempoolSize)},
		{models.MetricBlockHeight, float64(s.Metrics.BlockHeight)},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return helpers.NewEngineError("step produced non-finite "+c.name, nil)
		}
		if c.value < 0 {
			return helpers.NewEngineError("step produced negative "+c.name, nil)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// CurrentState is a pure read of the committed snapshot.
func (e *Engine) CurrentState() models.MSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// -----------------------------------------------------------------------------

// History returns up to lastN stepped snapshots, oldest first. lastN <= 0
// returns the whole retained backlog.
func (e *Engine) History(lastN int) []models.MSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lastN <= 0 {
		return e.backlog.GetAll()
	}
	return e.backlog.GetLatest(lastN)
}

// -----------------------------------------------------------------------------

// HistoryCount returns how many snapshots the backlog currently retains.
func (e *Engine) HistoryCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backlog.Size()
}
