package creator

import (
	"testing"

	"contract-risk-lab/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestWalletMaturity(t *testing.T) {
	tests := []struct {
		age  int
		want int
	}{
		{0, 0},
		{7, 0},
		{8, 5},
		{31, 10},
		{181, 15},
		{365, 15},
		{366, 20},
	}
	for _, tt := range tests {
		if got := WalletMaturity(tt.age); got != tt.want {
			t.Errorf("WalletMaturity(%d) = %d, want %d", tt.age, got, tt.want)
		}
	}
}

func TestSiblingSurvival(t *testing.T) {
	if got := SiblingSurvival(nil); got != 15 {
		t.Errorf("expected neutral 15 without siblings, got %d", got)
	}

	unchecked := []domain.SiblingContract{{Address: "0x1"}, {Address: "0x2"}}
	if got := SiblingSurvival(unchecked); got != 15 {
		t.Errorf("expected neutral 15 without checked siblings, got %d", got)
	}

	// 1 of 2 alive is 12.5, rounded half to even
	half := []domain.SiblingContract{
		{Checked: true, IsAlive: true},
		{Checked: true},
	}
	if got := SiblingSurvival(half); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}

	drained := []domain.SiblingContract{
		{Checked: true, HadLiquidityRemoval: true},
		{Checked: true, HadLiquidityRemoval: true},
		{Checked: true, HadLiquidityRemoval: true},
		{Checked: true, HadLiquidityRemoval: true},
	}
	if got := SiblingSurvival(drained); got != 0 {
		t.Errorf("expected floor at 0, got %d", got)
	}
}

func TestDeploymentHistory(t *testing.T) {
	now := testNow

	t.Run("dead siblings capped", func(t *testing.T) {
		var sibs []domain.SiblingContract
		for i := 0; i < 3; i++ {
			sibs = append(sibs, domain.SiblingContract{Checked: true, CreationTimestamp: now - 400*day})
		}
		if got := DeploymentHistory(sibs, now); got != 21 {
			t.Errorf("expected 30-9=21, got %d", got)
		}
	})

	t.Run("recent serial deployer", func(t *testing.T) {
		var sibs []domain.SiblingContract
		for i := 0; i < 6; i++ {
			sibs = append(sibs, domain.SiblingContract{CreationTimestamp: now - int64(i+1)*day})
		}
		if got := DeploymentHistory(sibs, now); got != 25 {
			t.Errorf("expected 25, got %d", got)
		}
	})

	t.Run("short mean lifespan", func(t *testing.T) {
		sibs := []domain.SiblingContract{
			{Checked: true, IsAlive: true, LifespanDays: intPtr(0)},
			{Checked: true, IsAlive: true, LifespanDays: intPtr(6)},
		}
		if got := DeploymentHistory(sibs, now); got != 25 {
			t.Errorf("expected 25, got %d", got)
		}
	})

	t.Run("long-lived bonus capped", func(t *testing.T) {
		sibs := []domain.SiblingContract{{Checked: true, IsAlive: true, LifespanDays: intPtr(200)}}
		if got := DeploymentHistory(sibs, now); got != 30 {
			t.Errorf("expected 30, got %d", got)
		}
	})
}

func TestFundingTransparency(t *testing.T) {
	flags := []domain.RedFlag{
		{Kind: domain.RedFlagBrandNewWallet},
		{Kind: domain.RedFlagMixerFunding},
	}
	if got := FundingTransparency(flags); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := FundingTransparency(nil); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
}

func TestBehavioralPatterns(t *testing.T) {
	t.Run("rapid deployments", func(t *testing.T) {
		var sibs []domain.SiblingContract
		for i := 0; i < 4; i++ {
			sibs = append(sibs, domain.SiblingContract{CreationTimestamp: testNow - int64(i)*3600})
		}
		if got := BehavioralPatterns(sibs); got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})

	t.Run("unknown lifespan is not a drain", func(t *testing.T) {
		sibs := []domain.SiblingContract{{Checked: true, HadLiquidityRemoval: true}}
		if got := BehavioralPatterns(sibs); got != 10 {
			t.Errorf("expected 10, got %d", got)
		}
	})

	t.Run("drains capped", func(t *testing.T) {
		var sibs []domain.SiblingContract
		for i := 0; i < 4; i++ {
			sibs = append(sibs, domain.SiblingContract{Checked: true, HadLiquidityRemoval: true, LifespanDays: intPtr(2)})
		}
		if got := BehavioralPatterns(sibs); got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})
}

func TestSummarize(t *testing.T) {
	sibs := []domain.SiblingContract{
		{Checked: true, IsAlive: true, IsActive: true, LifespanDays: intPtr(3)},
		{Checked: true, LifespanDays: intPtr(0)},
		{Checked: true, IsAlive: true, LifespanDays: intPtr(4)},
		{Address: "unchecked", LifespanDays: intPtr(100)},
	}

	sum := Summarize(sibs, true)
	if sum.TotalSiblings != 4 || sum.CheckedSiblings != 3 || sum.AliveSiblings != 2 || sum.DeadSiblings != 1 || sum.ActiveSiblings != 1 {
		t.Errorf("unexpected counts: %+v", sum)
	}
	if sum.AvgSiblingLifespanDays != 2.3 {
		t.Errorf("expected mean 2.3 including zero lifespans, got %v", sum.AvgSiblingLifespanDays)
	}
	if sum.SerialDeployer || !sum.Factory {
		t.Errorf("unexpected flags: %+v", sum)
	}
}
