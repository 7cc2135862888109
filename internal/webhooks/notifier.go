// Package webhooks pushes plan alerts to a configured HTTP endpoint.
// Deliveries are queued and retried with exponential backoff; the planning
// path never blocks on a slow receiver.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

const (
	maxAttempts = 5
	queueSize   = 256
)

// Delivery is the body posted to the webhook URL.
type Delivery struct {
	RunID  string        `json:"run_id"`
	SentAt time.Time     `json:"sent_at"`
	Alerts []model.Alert `json:"alerts"`
}

// Notifier owns the delivery queue and worker.
type Notifier struct {
	url    string
	secret []byte
	client *http.Client
	queue  chan Delivery
	done   chan struct{}
}

// NewNotifier starts the delivery worker. url must be non-empty; secret
// may be empty, in which case requests are unsigned.
func NewNotifier(url, secret string) *Notifier {
	n := &Notifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: 10 * time.Second},
		queue:  make(chan Delivery, queueSize),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Enqueue schedules one delivery. Drops on a full queue rather than
// blocking a plan run.
func (n *Notifier) Enqueue(runID string, alerts []model.Alert) {
	if len(alerts) == 0 {
		return
	}
	select {
	case n.queue <- Delivery{RunID: runID, SentAt: time.Now().UTC(), Alerts: alerts}:
	default:
		log.Printf("webhooks: queue full, dropping delivery for run %s", runID)
	}
}

// Close stops the worker after draining queued deliveries.
func (n *Notifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)
	for d := range n.queue {
		n.deliver(d)
	}
}

func (n *Notifier) deliver(d Delivery) {
	body, err := json.Marshal(d)
	if err != nil {
		log.Printf("webhooks: marshal run %s: %v", d.RunID, err)
		return
	}
	backoff := 500 * time.Millisecond
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := n.post(body); err == nil {
			return
		} else if attempt == maxAttempts {
			log.Printf("webhooks: giving up on run %s after %d attempts: %v", d.RunID, attempt, err)
			return
		}
		time.Sleep(backoff)
		backoff *= 2
	}
}

func (n *Notifier) post(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if len(n.secret) > 0 {
		req.Header.Set("X-Signature", Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of body, as sent in X-Signature.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign. Receivers use it to
// authenticate deliveries.
func Verify(secret, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
