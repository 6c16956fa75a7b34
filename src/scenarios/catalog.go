package scenarios

import (
	"bitcoin-abm/src/engine"
	"bitcoin-abm/src/models"
)

// builtinScenarios is the ordered catalog of experiment presets.
// Baseline comes first and stays first; the UI lists scenarios in
// this exact order.
var builtinScenarios = []models.MScenario{
	{
		ID:     "baseline",
		Name:   "Baseline Network",
		Params: models.MParams{},
	},
	{
		ID:         "fee_spike",
		Name:       "Fee Market Spike",
		Hypothesis: "Elevated transaction arrivals against reduced capacity drive sustained mempool growth and fee escalation.",
		Params: models.MParams{
			engine.ParamTxRate:         15,
			engine.ParamMempoolLimit:   50,
			engine.ParamFeeSensitivity: 2.0,
		},
	},
	{
		ID:         "halving",
		Name:       "Block Reward Halving",
		Hypothesis: "Reduced issuance pressures hashrate downward until fees compensate.",
		Params: models.MParams{
			engine.ParamBlockReward:    3.125,
			engine.ParamDifficultyRate: 0.1,
			engine.ParamFeeSensitivity: 1.5,
		},
	},
	{
		ID:         "hash_war",
		Name:       "Hashrate War",
		Hypothesis: "Competing miner influx drives hashrate and difficulty sharply upward.",
		Params: models.MParams{
			engine.ParamBaseHashrate:   150,
			engine.ParamMinerCount:     20,
			engine.ParamDifficultyRate: 0.08,
			engine.ParamHashrateGrowth: 0.05,
		},
	},
	{
		ID:         "contentious_fork",
		Name:       "Contentious Protocol Fork",
		Hypothesis: "Elevated proposal activity under a high consensus bar yields many proposals and little adoption.",
		Params: models.MParams{
			engine.ParamBipRate:   3,
			engine.ParamConsensus: 0.9,
		},
	},
	{
		ID:         "attack_51",
		Name:       "51% Attack Drill",
		Hypothesis: "A dominant miner concentrates block production and destabilizes hashrate.",
		Params: models.MParams{
			engine.ParamMinerCount:    5,
			engine.ParamDominantShare: 0.51,
		},
	},
}
