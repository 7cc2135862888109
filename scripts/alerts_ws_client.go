// Package main runs a demo client: it subscribes to the alert WebSocket,
// triggers a sample plan run and prints every alert that arrives.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/alerts/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt struct {
				RunID string          `json:"run_id"`
				Alert json.RawMessage `json:"alert"`
			}
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- run %s: %s", evt.RunID, string(evt.Alert))
		}
	}()

	// A cancel event guarantees at least a disruption_applied alert.
	body := []byte(`{"events":[{"event_type":"cancel","flight_id":"AI201"}]}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/plan/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var planResp struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&planResp); err != nil {
		log.Fatal(err)
	}
	log.Printf("plan run: %s", planResp.RunID)

	select {
	case <-time.After(5 * time.Second):
	case <-done:
	}
}
