package assist

import (
	"context"
	"errors"
	"testing"

	"IntentChain/internal/llm"
	"IntentChain/internal/offering"
	"IntentChain/internal/planner"
	"IntentChain/internal/storage/mysql"
	"IntentChain/internal/txbuilder"
)

const milanoID = "0x00000000000000000000000000000000000000000000000000000000000004d2"

type stubLLM struct {
	output string
	err    error
}

func (s *stubLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

type recordingRepo struct {
	saved   []mysql.PlanRecord
	saveErr error
	listErr error
}

func (r *recordingRepo) Save(_ context.Context, record mysql.PlanRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, record)
	return nil
}

func (r *recordingRepo) ListLatest(_ context.Context, limit int) ([]mysql.PlanRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if limit > len(r.saved) {
		limit = len(r.saved)
	}
	return r.saved[:limit], nil
}

func testService(t *testing.T, client llm.Client, opts ...Option) *Service {
	t.Helper()

	reg, err := offering.NewRegistry([]offering.Offering{{
		Name:          "Milano Towers",
		Symbol:        "MILA",
		ID:            milanoID,
		TokenContract: "0x1111111111111111111111111111111111111111",
	}})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	builder, err := txbuilder.New(txbuilder.Config{
		ChainID:    1,
		Staking:    "0x1000000000000000000000000000000000000001",
		Governance: "0x1000000000000000000000000000000000000002",
		Market:     "0x1000000000000000000000000000000000000003",
		Vesting:    "0x1000000000000000000000000000000000000004",
		QuoteToken: "0x1000000000000000000000000000000000000005",
	})
	if err != nil {
		t.Fatalf("build txbuilder: %v", err)
	}

	p := planner.New(client, reg)
	return NewService(p, builder, reg, opts...)
}

func chatRequest(content string) Request {
	return Request{Messages: []planner.ChatMessage{{Role: "user", Content: content}}}
}

func TestRespondUninitializedService(t *testing.T) {
	svc := NewService(nil, nil, nil)
	if _, err := svc.Respond(context.Background(), chatRequest("hi")); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}

func TestRespondStakeProducesSingleTx(t *testing.T) {
	svc := testService(t, &stubLLM{output: `{"actionType":"STAKE","amount":"100","userMessage":"Staking 100."}`})

	plan, err := svc.Respond(context.Background(), chatRequest("stake 100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.ID == "" {
		t.Fatal("plan id must be assigned")
	}
	if plan.ActionType != planner.ActionStake {
		t.Fatalf("unexpected action: %s", plan.ActionType)
	}
	if len(plan.Txs) != 1 {
		t.Fatalf("expected 1 tx, got %d", len(plan.Txs))
	}
	if plan.Tx == nil || *plan.Tx != plan.Txs[0] {
		t.Fatalf("tx must equal txs[0]: tx=%v txs=%v", plan.Tx, plan.Txs)
	}
}

func TestRespondQuestionHasEmptyTxListAndNilTx(t *testing.T) {
	svc := testService(t, nil, WithGuidance("https://docs.example.com", "support@example.com"))

	plan, err := svc.Respond(context.Background(), chatRequest("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Txs == nil || len(plan.Txs) != 0 {
		t.Fatalf("txs must be an empty list, got %v", plan.Txs)
	}
	if plan.Tx != nil {
		t.Fatalf("tx must be nil when no transactions exist, got %v", plan.Tx)
	}
	if plan.DocsURL != "https://docs.example.com" || plan.SupportEmail != "support@example.com" {
		t.Fatalf("guidance not backfilled: %+v", plan)
	}
}

func TestRespondBuyKeepsTransactionOrder(t *testing.T) {
	svc := testService(t, &stubLLM{output: `{"actionType":"BUY_ASSET","amount":"10","assetId":"` + milanoID + `"}`})

	plan, err := svc.Respond(context.Background(), chatRequest("buy 10 MILA"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Txs) != 2 {
		t.Fatalf("expected 2 txs, got %d", len(plan.Txs))
	}
	if plan.Tx == nil || *plan.Tx != plan.Txs[0] {
		t.Fatal("tx must point at the first transaction")
	}
}

func TestRespondRecordsPlanHistory(t *testing.T) {
	repo := &recordingRepo{}
	svc := testService(t, &stubLLM{output: `{"actionType":"STAKE","amount":"100"}`}, WithPlanRepository(repo))

	plan, err := svc.Respond(context.Background(), chatRequest("stake 100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 saved record, got %d", len(repo.saved))
	}
	record := repo.saved[0]
	if record.PlanID != plan.ID || record.ActionType != "STAKE" || record.TxCount != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.CreatedAt == 0 {
		t.Fatal("created at must be set")
	}
}

func TestRespondSurvivesStorageFailure(t *testing.T) {
	repo := &recordingRepo{saveErr: errors.New("disk full")}
	svc := testService(t, nil, WithPlanRepository(repo))

	plan, err := svc.Respond(context.Background(), chatRequest("hello"))
	if err != nil {
		t.Fatalf("storage failure must not fail the request: %v", err)
	}
	if plan == nil || plan.ID == "" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestRecentPlans(t *testing.T) {
	repo := &recordingRepo{saved: []mysql.PlanRecord{{PlanID: "p1"}, {PlanID: "p2"}}}
	svc := testService(t, nil, WithPlanRepository(repo))

	records, err := svc.RecentPlans(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].PlanID != "p1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestRecentPlansWithoutRepository(t *testing.T) {
	svc := testService(t, nil)
	if _, err := svc.RecentPlans(context.Background(), 10); err == nil {
		t.Fatal("expected error when no repository is configured")
	}
}

func TestRecentPlansStorageError(t *testing.T) {
	repo := &recordingRepo{listErr: errors.New("connection lost")}
	svc := testService(t, nil, WithPlanRepository(repo))
	if _, err := svc.RecentPlans(context.Background(), 10); err == nil {
		t.Fatal("expected error on storage failure")
	}
}

func TestRespondClaimRefusalReachesPlanWarnings(t *testing.T) {
	svc := testService(t, &stubLLM{output: `{"actionType":"CLAIM_VESTING"}`})

	plan, err := svc.Respond(context.Background(), Request{
		Messages: []planner.ChatMessage{{Role: "user", Content: "claim my vesting"}},
		Context: &txbuilder.RequestContext{
			Account: "0x1111111111111111111111111111111111111111",
			Vesting: &txbuilder.VestingClaim{
				Data: txbuilder.VestingRecord{
					Beneficiary: "0x2222222222222222222222222222222222222222",
					TotalAmount: "1000",
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Txs) != 0 {
		t.Fatalf("refused claim must carry no txs, got %v", plan.Txs)
	}
	if len(plan.Warnings) != 1 {
		t.Fatalf("unexpected warnings: %v", plan.Warnings)
	}
}
