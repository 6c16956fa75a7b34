package engine

import "math"

// Parameter keys accepted by Reset. Unknown keys in a bundle are ignored.
const (
	ParamTxRate         = "tx_rate"
	ParamBaseHashrate   = "base_hashrate"
	ParamMinerCount     = "miner_count"
	ParamBlockReward    = "block_reward"
	ParamDifficultyRate = "difficulty_adjustment_rate"
	ParamMempoolLimit   = "mempool_limit"
	ParamFeeSensitivity = "fee_sensitivity"
	ParamHashrateGrowth = "hashrate_growth"
	ParamBipRate        = "bip_rate"
	ParamDominantShare  = "dominant_miner_share"
	ParamConsensus      = "consensus_threshold"
	ParamInitialMempool = "mempool_size"
	ParamSeed           = "seed"
)

// -----------------------------------------------------------------------------

// modelParams is the resolved parameter set of one run.
type modelParams struct {
	txRate             float64
	baseHashrate       float64
	minerCount         float64
	blockReward        float64
	difficultyAdjRate  float64
	mempoolLimit       float64
	feeSensitivity     float64
	hashrateGrowth     float64
	bipRate            float64
	dominantMinerShare float64
	consensusThreshold float64
	initialMempool     float64
	seed               int64
}

// -----------------------------------------------------------------------------

func defaultParams(seed int64) modelParams {
	return modelParams{
		txRate:             5,
		baseHashrate:       100.0,
		minerCount:         10,
		blockReward:        6.25,
		difficultyAdjRate:  0.05,
		mempoolLimit:       100,
		feeSensitivity:     1.0,
		hashrateGrowth:     0,
		bipRate:            1.0,
		dominantMinerShare: 0,
		consensusThreshold: 0.67,
		initialMempool:     0,
		seed:               seed,
	}
}

// -----------------------------------------------------------------------------

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// -----------------------------------------------------------------------------

// resolveParams folds a bundle onto the defaults. Missing keys keep their
// default, unknown keys are ignored. Structural params (rates, counts,
// limits) must stay finite or they keep their default; behavioral multipliers
// pass through unchecked and a poisoned value surfaces as a rejected tick,
// never as a corrupted committed state.
func resolveParams(bundle map[string]float64, defaultSeed int64) modelParams {
	p := defaultParams(defaultSeed)
	if bundle == nil {
		return p
	}

	if v, ok := bundle[ParamTxRate]; ok && isFinite(v) {
		p.txRate = v
	}
	if v, ok := bundle[ParamBaseHashrate]; ok && isFinite(v) {
		p.baseHashrate = v
	}
	if v, ok := bundle[ParamMinerCount]; ok && isFinite(v) {
		p.minerCount = v
	}
	if v, ok := bundle[ParamBlockReward]; ok {
		p.blockReward = v
	}
	if v, ok := bundle[ParamDifficultyRate]; ok {
		p.difficultyAdjRate = v
	}
	if v, ok := bundle[ParamMempoolLimit]; ok && isFinite(v) {
		p.mempoolLimit = v
	}
	if v, ok := bundle[ParamFeeSensitivity]; ok {
		p.feeSensitivity = v
	}
	if v, ok := bundle[ParamHashrateGrowth]; ok {
		p.hashrateGrowth = v
	}
	if v, ok := bundle[ParamBipRate]; ok {
		p.bipRate = v
	}
	if v, ok := bundle[ParamDominantShare]; ok {
		p.dominantMinerShare = v
	}
	if v, ok := bundle[ParamConsensus]; ok {
		p.consensusThreshold = v
	}
	if v, ok := bundle[ParamInitialMempool]; ok && isFinite(v) && v >= 0 {
		p.initialMempool = v
	}
	if v, ok := bundle[ParamSeed]; ok && isFinite(v) {
		p.seed = int64(v)
	}

	// Guard rails for params that divide or scale the dynamics
	if p.txRate < 0 {
		p.txRate = 0
	}
	if p.minerCount < 1 {
		p.minerCount = 1
	}
	if p.baseHashrate <= 0 {
		p.baseHashrate = 100.0
	}
	if p.mempoolLimit <= 0 {
		p.mempoolLimit = 100
	}

	return p
}
