package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"scoreboard/internal/config"

	"github.com/google/uuid"
)

type submitReq struct {
	ActionType     string `json:"action_type"`
	ActionID       string `json:"action_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

type submitResp struct {
	UserID   string `json:"user_id"`
	Delta    int64  `json:"delta"`
	Total    int64  `json:"total"`
	Rank     int    `json:"rank"`
	Replayed bool   `json:"replayed"`
}

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal(err)
	}
	client := &http.Client{Timeout: 10 * time.Second}

	for u := 0; u < cfg.Users; u++ {
		for i := 0; i < cfg.Awards; i++ {
			req := submitReq{
				ActionType:     cfg.Action,
				ActionID:       fmt.Sprintf("bot-%d-%d", u, i),
				IdempotencyKey: uuid.NewString(),
			}
			resp, err := submit(client, cfg, req)
			if err != nil {
				log.Printf("submit %s: %v", req.ActionID, err)
				continue
			}
			log.Printf("awarded %s: total=%d rank=%d replayed=%v",
				req.ActionID, resp.Total, resp.Rank, resp.Replayed)
		}
	}
}

func submit(client *http.Client, cfg config.BotConfig, req submitReq) (*submitResp, error) {
	body, _ := json.Marshal(req)
	httpReq, err := http.NewRequest(http.MethodPost, cfg.ServerURL+"/api/awards", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}
	var out submitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
