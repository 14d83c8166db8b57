package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

func edge(center, from, to string, count int, at int64) domain.EdgeRecord {
	return domain.EdgeRecord{
		Chain:      domain.ChainEthereum,
		Center:     center,
		From:       from,
		To:         to,
		Count:      count,
		TotalValue: big.NewInt(int64(count)),
		TxTypes:    []domain.TxKind{domain.TxNormal},
		AnalyzedAt: at,
	}
}

func TestEdgeStore_InsertAndGetSnapshot(t *testing.T) {
	store := NewEdgeStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []domain.EdgeRecord{
		edge("0xc", "0xa", "0xc", 1, 100),
		edge("0xc", "0xb", "0xc", 5, 100),
		edge("0xc", "0xc", "0xa", 2, 200),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	snap, err := store.GetSnapshot(ctx, domain.ChainEthereum, "0xc", 100)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(snap) != 2 || snap[0].From != "0xb" {
		t.Errorf("expected 2 edges ordered by count, got %+v", snap)
	}

	touching, err := store.GetByCounterparty(ctx, domain.ChainEthereum, "0xa")
	if err != nil {
		t.Fatalf("GetByCounterparty failed: %v", err)
	}
	if len(touching) != 2 || touching[0].AnalyzedAt != 200 {
		t.Errorf("expected 2 edges newest first, got %+v", touching)
	}
}

func TestEdgeStore_DuplicateRejectsBatch(t *testing.T) {
	store := NewEdgeStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []domain.EdgeRecord{edge("0xc", "0xa", "0xc", 1, 100)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, []domain.EdgeRecord{
		edge("0xc", "0xb", "0xc", 1, 100),
		edge("0xc", "0xa", "0xc", 1, 100),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	snap, _ := store.GetSnapshot(ctx, domain.ChainEthereum, "0xc", 100)
	if len(snap) != 1 {
		t.Errorf("failed batch must not be partially applied, got %d edges", len(snap))
	}
}

func TestScoreHistoryStore_GetByAddress(t *testing.T) {
	store := NewScoreHistoryStore()
	ctx := context.Background()

	for _, at := range []int64{300, 100, 200} {
		r := domain.ScoreRecord{Kind: domain.KindContract, Chain: domain.ChainEthereum, Address: testAddr, Overall: int(at / 10), AnalyzedAt: at}
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	_ = store.Insert(ctx, domain.ScoreRecord{Kind: domain.KindCreator, Chain: domain.ChainEthereum, Address: testAddr, AnalyzedAt: 150})

	got, err := store.GetByAddress(ctx, domain.KindContract, domain.ChainEthereum, testAddr, 100, 250)
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(got) != 2 || got[0].AnalyzedAt != 100 || got[1].AnalyzedAt != 200 {
		t.Errorf("unexpected history: %+v", got)
	}
}
