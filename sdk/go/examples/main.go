package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"IntentChain/sdk/go/assistant"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(assistant.Plan{
			ID:             "plan-demo",
			ActionType:     "STAKE",
			Interpretation: "Staking 100 tokens.",
			Txs: []assistant.TxPreview{{
				ChainID: 1,
				To:      "0x1111111111111111111111111111111111111111",
				Data:    "0xa694fc3a",
				Value:   "0",
			}},
		})
	})
	mux.HandleFunc("/plans", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]assistant.PlanRecord{
			{PlanID: "plan-demo", ActionType: "STAKE", TxCount: 1, CreatedAt: time.Now().Unix()},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := assistant.NewClient(srv.URL, srv.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	plan, err := client.Chat(ctx, assistant.ChatRequest{
		Messages: []assistant.Message{{Role: "user", Content: "stake 100"}},
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("plan %s (%s) with %d tx(s)\n", plan.ID, plan.ActionType, len(plan.Txs))

	records, err := client.Plans(ctx, 10)
	if err != nil {
		panic(err)
	}
	fmt.Printf("history holds %d record(s)\n", len(records))
}
