package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"IntentChain/internal/llm"
	"IntentChain/internal/offering"
)

const milanoID = "0x00000000000000000000000000000000000000000000000000000000000004d2"

type stubClient struct {
	output string
	err    error
	calls  int
}

func (s *stubClient) Complete(_ context.Context, _ llm.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func testRegistry(t *testing.T) *offering.Registry {
	t.Helper()
	reg, err := offering.NewRegistry([]offering.Offering{
		{
			Name:          "Milano Towers",
			Symbol:        "MILA",
			ID:            milanoID,
			TokenContract: "0x1111111111111111111111111111111111111111",
		},
		{
			Name:          "Harbor Lofts",
			Symbol:        "HARB",
			ID:            "0x00000000000000000000000000000000000000000000000000000000000010e1",
			TokenContract: "0x2222222222222222222222222222222222222222",
		},
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func userMessage(content string) []ChatMessage {
	return []ChatMessage{{Role: "user", Content: content}}
}

func TestPlanGreetingNeverCallsModel(t *testing.T) {
	client := &stubClient{output: `{"actionType":"STAKE"}`}
	p := New(client, testRegistry(t))

	greetings := []string{"hi", "Hello!", "  GM  ", "hey bot", "thanks", "help", ""}
	for _, text := range greetings {
		intent := p.Plan(context.Background(), userMessage(text))
		if intent.Action != ActionQuestion {
			t.Fatalf("greeting %q: unexpected action %s", text, intent.Action)
		}
		if intent.UserMessage == "" {
			t.Fatalf("greeting %q: empty user message", text)
		}
	}
	if client.calls != 0 {
		t.Fatalf("expected zero model calls for greetings, got %d", client.calls)
	}
}

func TestPlanNilClientFallsBack(t *testing.T) {
	p := New(nil, testRegistry(t), WithGuidance("https://docs.example.com", "support@example.com"))

	intent := p.Plan(context.Background(), userMessage("stake 100 tokens"))
	if intent.Action != ActionQuestion {
		t.Fatalf("unexpected action: %s", intent.Action)
	}
	if intent.DocsURL != "https://docs.example.com" || intent.SupportEmail != "support@example.com" {
		t.Fatalf("guidance not carried: %+v", intent)
	}
}

func TestPlanDegradesOnModelFailure(t *testing.T) {
	cases := []struct {
		name   string
		client *stubClient
	}{
		{"transport error", &stubClient{err: errors.New("boom")}},
		{"not json", &stubClient{output: "sure, staking now!"}},
		{"unknown action", &stubClient{output: `{"actionType":"TRANSMUTE"}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.client, testRegistry(t))
			intent := p.Plan(context.Background(), userMessage("stake 100"))
			if intent.Action != ActionQuestion {
				t.Fatalf("unexpected action: %s", intent.Action)
			}
			if tc.client.calls != 1 {
				t.Fatalf("expected exactly one model call, got %d", tc.client.calls)
			}
		})
	}
}

func TestPlanParsesStakeIntent(t *testing.T) {
	client := &stubClient{output: `{"actionType":"stake","interpretation":"Stake 250 tokens.","userMessage":"Staking 250.","amount":"250"}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("stake 250 please"))
	if intent.Action != ActionStake {
		t.Fatalf("unexpected action: %s", intent.Action)
	}
	if intent.Amount != "250" {
		t.Fatalf("unexpected amount: %q", intent.Amount)
	}
	if len(intent.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", intent.Warnings)
	}
}

func TestPlanRecoversAmountFromText(t *testing.T) {
	client := &stubClient{output: `{"actionType":"STAKE","userMessage":"Staking."}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("please stake 42.5 for me"))
	if intent.Amount != "42.5" {
		t.Fatalf("unexpected amount: %q", intent.Amount)
	}
}

func TestPlanWarnsOnMissingAmount(t *testing.T) {
	client := &stubClient{output: `{"actionType":"UNSTAKE","userMessage":"Unstaking."}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("unstake some of my tokens"))
	if intent.Amount != "" {
		t.Fatalf("unexpected amount: %q", intent.Amount)
	}
	if len(intent.Warnings) != 1 || !strings.Contains(intent.Warnings[0], "Missing amount") {
		t.Fatalf("unexpected warnings: %v", intent.Warnings)
	}
}

func TestPlanAcceptsNumericAmountAndDecimalAssetID(t *testing.T) {
	client := &stubClient{output: `{"actionType":"BUY_ASSET","amount":10,"assetId":1234}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("buy 10 shares of 1234"))
	if intent.Amount != "10" {
		t.Fatalf("unexpected amount: %q", intent.Amount)
	}
	if intent.AssetID != milanoID {
		t.Fatalf("unexpected asset id: %s", intent.AssetID)
	}
}

func TestPlanResolvesAssetFromText(t *testing.T) {
	client := &stubClient{output: `{"actionType":"BUY_ASSET","amount":"10"}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("buy 10 MILA shares"))
	if intent.AssetID != milanoID {
		t.Fatalf("unexpected asset id: %s", intent.AssetID)
	}
}

func TestPlanAsksForOfferingWhenUnresolved(t *testing.T) {
	client := &stubClient{output: `{"actionType":"BUY_ASSET","amount":"10"}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("buy 10 shares"))
	if intent.AssetID != "" {
		t.Fatalf("unexpected asset id: %s", intent.AssetID)
	}
	if !strings.Contains(intent.UserMessage, "Milano Towers") || !strings.Contains(intent.UserMessage, "Harbor Lofts") {
		t.Fatalf("clarification should list offerings: %q", intent.UserMessage)
	}
	if len(intent.Warnings) == 0 || !strings.Contains(intent.Warnings[len(intent.Warnings)-1], "Missing asset") {
		t.Fatalf("unexpected warnings: %v", intent.Warnings)
	}
}

func TestPlanRewritesSellToUnsupported(t *testing.T) {
	client := &stubClient{output: `{"actionType":"SELL_ASSET","amount":"5","assetId":"` + milanoID + `"}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("sell 5 MILA"))
	if intent.Action != ActionUnsupported {
		t.Fatalf("unexpected action: %s", intent.Action)
	}
	if !strings.Contains(intent.UserMessage, "not supported") {
		t.Fatalf("unexpected user message: %q", intent.UserMessage)
	}
}

func TestPlanVotePassesThrough(t *testing.T) {
	client := &stubClient{output: `{"actionType":"VOTE","proposalId":3,"vote":true,"userMessage":"Voting yes on proposal 3."}`}
	p := New(client, testRegistry(t))

	intent := p.Plan(context.Background(), userMessage("vote yes on proposal 3"))
	if intent.Action != ActionVote {
		t.Fatalf("unexpected action: %s", intent.Action)
	}
	if intent.ProposalID == nil || *intent.ProposalID != 3 {
		t.Fatalf("unexpected proposal id: %v", intent.ProposalID)
	}
	if intent.Vote == nil || !*intent.Vote {
		t.Fatalf("unexpected vote: %v", intent.Vote)
	}
}

func TestFirstNumberSkipsIdentifierDigits(t *testing.T) {
	// Digits embedded in a hex identifier must not be mistaken for amounts.
	text := "buy shares of " + milanoID
	if got := firstNumber(text); got != "" {
		t.Fatalf("expected no number, got %q", got)
	}
	if got := firstNumber("stake 100 tokens"); got != "100" {
		t.Fatalf("unexpected number: %q", got)
	}
}

func TestIsSmallTalk(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"hi", true},
		{"Hello there!", true},
		{"gm fam", true},
		{"what can you do", true},
		{"", true},
		{"stake 100", false},
		{"hey I want to stake one hundred tokens today", false},
	}
	for _, tc := range cases {
		if got := isSmallTalk(tc.text); got != tc.want {
			t.Fatalf("isSmallTalk(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
