package calculations

import (
	"sort"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// RewardDistributor converts a subnet epoch's global weights, reputations
// and emission into a conserved reward record. Reputations are the
// post-update scores of the validators that submitted this epoch.
type RewardDistributor struct {
	SubnetId       uint32
	Epoch          uint64
	Global         *GlobalWeights
	Reputations    map[uint32]math.LegacyDec
	Emission       math.Int
	ValidatorShare math.LegacyDec
	Logger         types.ConsensusLogger
}

// NewRewardDistributor creates a new RewardDistributor instance
func NewRewardDistributor(
	subnetID uint32,
	epoch uint64,
	global *GlobalWeights,
	reputations map[uint32]math.LegacyDec,
	emission math.Int,
	validatorShare math.LegacyDec,
	logger types.ConsensusLogger,
) *RewardDistributor {
	return &RewardDistributor{
		SubnetId:       subnetID,
		Epoch:          epoch,
		Global:         global,
		Reputations:    reputations,
		Emission:       emission,
		ValidatorShare: validatorShare,
		Logger:         logger,
	}
}

// Distribute splits the emission into a validator pool (the configured
// share, floored) and a miner pool (the rest), pays each side out
// proportionally, and assigns the rounding remainder deterministically: the
// miner remainder to the highest-weighted miner, the validator remainder to
// the highest-reputation validator, ties to the lower UID. A side with no
// eligible recipients is burned, never carried forward. The record always
// satisfies distributed + burned == emission exactly.
func (rd *RewardDistributor) Distribute() (*types.RewardRecord, error) {
	if rd.Emission.IsNil() || rd.Emission.IsNegative() {
		return nil, sdkerrors.Wrapf(types.ErrInvalidParams, "emission must be non-negative, got %v", rd.Emission)
	}
	if rd.ValidatorShare.IsNil() || rd.ValidatorShare.IsNegative() || rd.ValidatorShare.GT(math.LegacyOneDec()) {
		return nil, sdkerrors.Wrapf(types.ErrInvalidParams, "validator share must be in [0,1], got %v", rd.ValidatorShare)
	}

	validatorPool := math.LegacyNewDecFromInt(rd.Emission).Mul(rd.ValidatorShare).TruncateInt()
	minerPool := rd.Emission.Sub(validatorPool)

	minerRewards, minerPaid, err := rd.payMiners(minerPool)
	if err != nil {
		return nil, err
	}
	validatorRewards, validatorPaid, err := rd.payValidators(validatorPool)
	if err != nil {
		return nil, err
	}

	record := &types.RewardRecord{
		SubnetId:         rd.SubnetId,
		Epoch:            rd.Epoch,
		MinerRewards:     minerRewards,
		ValidatorRewards: validatorRewards,
		Burned:           rd.Emission.Sub(minerPaid).Sub(validatorPaid),
	}
	if !record.TotalDistributed().Add(record.Burned).Equal(rd.Emission) {
		return nil, sdkerrors.Wrapf(types.ErrInvalidParams,
			"reward conservation violated for subnet %d epoch %d", rd.SubnetId, rd.Epoch)
	}
	rd.Logger.LogInfo("Distribute: epoch rewards computed", types.Rewards,
		"subnet", rd.SubnetId, "epoch", rd.Epoch,
		"emission", rd.Emission.String(), "minerPaid", minerPaid.String(),
		"validatorPaid", validatorPaid.String(), "burned", record.Burned.String())
	return record, nil
}

func (rd *RewardDistributor) payMiners(pool math.Int) ([]types.RewardAmount, math.Int, error) {
	if rd.Global.IsZero() || !pool.IsPositive() {
		return nil, math.ZeroInt(), nil
	}
	total := rd.Global.Total()
	if !total.IsPositive() {
		return nil, math.ZeroInt(), nil
	}
	weights := make([]weightedRecipient, len(rd.Global.Uids))
	for i, uid := range rd.Global.Uids {
		weights[i] = weightedRecipient{uid: uid, weight: rd.Global.Weights[uid]}
	}
	return payProportional(weights, total, pool)
}

func (rd *RewardDistributor) payValidators(pool math.Int) ([]types.RewardAmount, math.Int, error) {
	if len(rd.Reputations) == 0 || !pool.IsPositive() {
		return nil, math.ZeroInt(), nil
	}
	ids := make([]uint32, 0, len(rd.Reputations))
	for id := range rd.Reputations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := math.LegacyZeroDec()
	weights := make([]weightedRecipient, len(ids))
	for i, id := range ids {
		rep := rd.Reputations[id]
		if rep.IsNil() || rep.IsNegative() {
			rep = math.LegacyZeroDec()
		}
		weights[i] = weightedRecipient{uid: id, weight: rep}
		total = total.Add(rep)
	}
	if !total.IsPositive() {
		return nil, math.ZeroInt(), nil
	}
	return payProportional(weights, total, pool)
}

type weightedRecipient struct {
	uid    uint32
	weight math.LegacyDec
}

// payProportional pays floor(pool * weight/total) to each recipient and
// assigns whatever rounding leaves over to the heaviest recipient, ties to
// the lower UID. Recipients must be sorted ascending by UID.
func payProportional(recipients []weightedRecipient, total math.LegacyDec, pool math.Int) ([]types.RewardAmount, math.Int, error) {
	poolDec := decimal.NewFromBigInt(pool.BigInt(), 0)
	totalDec, err := decimal.NewFromString(total.String())
	if err != nil {
		return nil, math.Int{}, sdkerrors.Wrap(types.ErrInvalidParams, err.Error())
	}

	out := make([]types.RewardAmount, len(recipients))
	paid := math.ZeroInt()
	heaviest := 0
	for i, r := range recipients {
		wd, err := decimal.NewFromString(r.weight.String())
		if err != nil {
			return nil, math.Int{}, sdkerrors.Wrap(types.ErrInvalidParams, err.Error())
		}
		amount := math.NewIntFromBigInt(wd.Div(totalDec).Mul(poolDec).BigInt())
		if amount.IsNegative() {
			amount = math.ZeroInt()
		}
		out[i] = types.RewardAmount{Uid: r.uid, Amount: amount}
		paid = paid.Add(amount)
		if r.weight.GT(recipients[heaviest].weight) {
			heaviest = i
		}
	}

	remainder := pool.Sub(paid)
	if !remainder.IsZero() {
		adjusted := out[heaviest].Amount.Add(remainder)
		if adjusted.IsNegative() {
			return nil, math.Int{}, sdkerrors.Wrap(types.ErrInvalidParams, "rounding remainder exceeds largest payout")
		}
		out[heaviest].Amount = adjusted
		paid = paid.Add(remainder)
	}
	return out, paid, nil
}
