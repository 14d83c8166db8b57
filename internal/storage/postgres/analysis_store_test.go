package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

const testContract = "0x00000000000000000000000000000000000000c0"

func contractAnalysis(analyzedAt int64, overall int) *domain.ContractAnalysis {
	return &domain.ContractAnalysis{
		Address: testContract,
		Chain:   domain.ChainEthereum,
		Profile: domain.ContractProfile{
			Address:         testContract,
			Verified:        true,
			ContractName:    "PepeToken",
			CompilerVersion: "v0.8.20+commit.a1b79de6",
		},
		Token:           &domain.TokenProfile{Symbol: ptr("PEPE"), Decimals: 18},
		Scores:          domain.ScoreBreakdown{CodeQuality: 20, Security: overall - 20, Overall: overall, RiskTier: domain.TierFor(overall)},
		AnalyzedAt:      analyzedAt,
		DurationSeconds: 1.5,
	}
}

func TestContractAnalysisStore_InsertCreatesProject(t *testing.T) {
	pool := newTestPool(t)

	store := NewContractAnalysisStore(pool)
	projects := NewProjectStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, contractAnalysis(1_700_000_000, 72)))

	p, err := projects.GetByAddress(ctx, domain.ChainEthereum, testContract)
	require.NoError(t, err)
	require.NotNil(t, p.Name)
	assert.Equal(t, "PepeToken", *p.Name)
	assert.Equal(t, "PEPE", *p.TokenSymbol)
}

func TestContractAnalysisStore_LatestAndHistory(t *testing.T) {
	pool := newTestPool(t)

	store := NewContractAnalysisStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, contractAnalysis(1_700_000_000, 40)))
	require.NoError(t, store.Insert(ctx, contractAnalysis(1_700_000_600, 72)))

	latest, err := store.GetLatest(ctx, domain.ChainEthereum, testContract)
	require.NoError(t, err)
	assert.Equal(t, 72, latest.Scores.Overall)
	assert.Equal(t, "PepeToken", latest.Profile.ContractName)

	history, err := store.GetHistory(ctx, domain.ChainEthereum, testContract, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(1_700_000_600), history[0].AnalyzedAt)
	assert.Equal(t, int64(1_700_000_000), history[1].AnalyzedAt)
}

func TestContractAnalysisStore_Duplicate(t *testing.T) {
	pool := newTestPool(t)

	store := NewContractAnalysisStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, contractAnalysis(1_700_000_000, 40)))
	err := store.Insert(ctx, contractAnalysis(1_700_000_000, 40))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetLatest(ctx, domain.ChainBSC, testContract)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreatorAnalysisStore_GetByDeployer(t *testing.T) {
	pool := newTestPool(t)

	store := NewCreatorAnalysisStore(pool)
	ctx := context.Background()

	deployer := "0x00000000000000000000000000000000000000d0"
	for i, addr := range []string{"0x01", "0x02"} {
		a := &domain.CreatorAnalysis{
			Address:    addr,
			Chain:      domain.ChainEthereum,
			Deployer:   domain.WalletProfile{Address: deployer, WalletAgeDays: ptr(30), Balance: big.NewInt(0)},
			Score:      domain.CreatorTrustScore{Overall: 55, RiskTier: domain.TierFor(55)},
			Summary:    domain.CreatorSummary{TotalSiblings: 3, AliveSiblings: 2},
			AnalyzedAt: int64(1_700_000_000 + i),
		}
		require.NoError(t, store.Insert(ctx, a))
	}

	list, err := store.GetByDeployer(ctx, domain.ChainEthereum, deployer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0x02", list[0].Address)
	assert.Equal(t, 30, *list[0].Deployer.WalletAgeDays)

	latest, err := store.GetLatest(ctx, domain.ChainEthereum, "0x01")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Summary.TotalSiblings)
}

func TestInteractionAnalysisStore_RoundTrip(t *testing.T) {
	pool := newTestPool(t)

	store := NewInteractionAnalysisStore(pool)
	ctx := context.Background()

	in, _ := new(big.Int).SetString("123456789000000000000000", 10)
	a := &domain.InteractionAnalysis{
		Address: testContract,
		Chain:   domain.ChainPolygon,
		Stats: domain.InteractionStats{
			TotalTransactions: 5,
			UniqueAddresses:   4,
			TotalValueIn:      in,
			TotalValueOut:     big.NewInt(1),
		},
		Patterns:   []domain.Pattern{{Type: domain.PatternDEXActivity, Severity: domain.PatternInfo}},
		AnalyzedAt: 1_700_000_000,
	}
	require.NoError(t, store.Insert(ctx, a))

	got, err := store.GetLatest(ctx, domain.ChainPolygon, testContract)
	require.NoError(t, err)
	assert.Equal(t, 0, in.Cmp(got.Stats.TotalValueIn))
	assert.Len(t, got.Patterns, 1)

	assert.ErrorIs(t, store.Insert(ctx, a), storage.ErrDuplicateKey)
}
