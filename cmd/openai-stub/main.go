// Command openai-stub is a tiny OpenAI-compatible chat server that returns a
// canned pricing extraction for any request. It exists for smoke testing the
// CLI end to end without a real model behind it.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

const cannedExtraction = `{
  "currency_code": "USD",
  "currency_symbol": "$",
  "plans": [
    {
      "plan_name": "Free",
      "monthly_price": null,
      "annual_price": null,
      "billing_periods_available": [],
      "is_free_tier": true,
      "is_contact_sales": false,
      "target_audience": "individual",
      "key_features": ["Basic access"],
      "notes": ""
    },
    {
      "plan_name": "Premium",
      "monthly_price": 11.99,
      "annual_price": 119.99,
      "billing_periods_available": ["monthly", "annual"],
      "is_free_tier": false,
      "is_contact_sales": false,
      "target_audience": "individual",
      "key_features": ["Everything in Free", "Offline mode"],
      "notes": ""
    }
  ],
  "extraction_confidence": "high",
  "extraction_notes": "stub response"
}`

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		// Image requests carry array content; the raw form decodes either way.
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]any{
			"id":     "cmpl-stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": cannedExtraction,
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	log.Printf("openai-stub listening on %s (model %s)", addr, model)
	log.Fatal(http.ListenAndServe(addr, mux))
}
