package mirror

import (
	"testing"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
)

func sampleParsedTx(targetAddr, mint string, preBase, postBase uint64, preToken, postToken float64) *blockchain.ParsedTransaction {
	return &blockchain.ParsedTransaction{
		Signature:    "sig1",
		AccountKeys:  []string{targetAddr, "otherAccount"},
		ProgramIDs:   []string{"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"},
		PreBalances:  []uint64{preBase, 0},
		PostBalances: []uint64{postBase, 0},
		PreTokenBalances: []blockchain.TokenBalanceEntry{
			{AccountIndex: 0, Mint: mint, Owner: targetAddr, UIAmount: preToken},
		},
		PostTokenBalances: []blockchain.TokenBalanceEntry{
			{AccountIndex: 0, Mint: mint, Owner: targetAddr, UIAmount: postToken},
		},
	}
}

func TestTokenDeltaForOwner_DetectsBuy(t *testing.T) {
	parsed := sampleParsedTx("TargetAddr1", "MintAAA", 2*lamportsPerSOL, 1*lamportsPerSOL, 0, 1000)
	mint, delta := tokenDeltaForOwner(parsed, "TargetAddr1")
	if mint != "MintAAA" || delta != 1000 {
		t.Errorf("got (%s, %f), want (MintAAA, 1000)", mint, delta)
	}
}

func TestClamp_BoundsWithinRange(t *testing.T) {
	if got := clamp(0.4, 0.01, 0.2); got != 0.2 {
		t.Errorf("clamp(0.4, 0.01, 0.2) = %f, want 0.2", got)
	}
	if got := clamp(0.005, 0.01, 0.2); got != 0.01 {
		t.Errorf("clamp(0.005, 0.01, 0.2) = %f, want 0.01", got)
	}
	if got := clamp(0.1, 0.01, 0.2); got != 0.1 {
		t.Errorf("clamp(0.1, 0.01, 0.2) = %f, want 0.1", got)
	}
}

func TestFilter_RespectsCopyToggleAndLists(t *testing.T) {
	e := &Engine{}
	target := &Target{
		Name: "whale1",
		Config: MirrorConfig{
			CopyBuys:      false,
			CopySells:     true,
			MintBlockList: []string{"BlockedMint"},
		},
	}

	buyTrade := &DetectedTrade{Action: "buy", Mint: "SomeMint", BaseAmount: 1}
	if reason := e.filter(target, buyTrade); reason == "" {
		t.Error("expected buy to be filtered when CopyBuys is false")
	}

	blockedTrade := &DetectedTrade{Action: "sell", Mint: "BlockedMint", BaseAmount: 1}
	if reason := e.filter(target, blockedTrade); reason == "" {
		t.Error("expected trade on a blocked mint to be filtered")
	}

	okTrade := &DetectedTrade{Action: "sell", Mint: "SomeMint", BaseAmount: 1}
	if reason := e.filter(target, okTrade); reason != "" {
		t.Errorf("expected no filter reason, got %q", reason)
	}
}

func TestFilter_MinTargetAmount(t *testing.T) {
	e := &Engine{}
	target := &Target{
		Config: MirrorConfig{CopyBuys: true, MinTargetAmount: 0.5},
	}
	trade := &DetectedTrade{Action: "buy", Mint: "M", BaseAmount: 0.1}
	if reason := e.filter(target, trade); reason == "" {
		t.Error("expected trade below minTargetAmount to be filtered")
	}
}

func TestDedup_SameSignatureProcessedOnce(t *testing.T) {
	e := New(nil, nil, nil, nil, nil)
	key := "targetAddr:sig1"
	if e.alreadySeen(key) {
		t.Fatal("should not be seen before marking")
	}
	e.markSeen(key)
	if !e.alreadySeen(key) {
		t.Fatal("should be seen immediately after marking")
	}
}

func TestInFlight_PreventsReentrantProcessing(t *testing.T) {
	e := New(nil, nil, nil, nil, nil)
	if !e.tryEnterInFlight("addr1") {
		t.Fatal("first entry should succeed")
	}
	if e.tryEnterInFlight("addr1") {
		t.Fatal("second concurrent entry for the same address should be rejected")
	}
	e.leaveInFlight("addr1")
	if !e.tryEnterInFlight("addr1") {
		t.Fatal("entry should succeed again after leaving in-flight")
	}
}
