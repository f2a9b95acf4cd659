// Package main submits a demo batch and streams its job events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ridepool/internal/events"
	"ridepool/internal/logging"
	"ridepool/internal/model"
)

const demoBatch = `{
  "riders": [{"id":"ana"},{"id":"ben"},{"id":"cleo"},{"id":"dev"},{"id":"eli"}],
  "vehicles": [
    {"id":"car1","driverId":"ana","capacity":2},
    {"id":"car2","driverId":"ben","capacity":2}
  ]
}`

func main() {
	log, err := logging.New("info", logging.ProfileConsole)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// An optional YAML batch file replaces the demo batch.
	body := []byte(demoBatch)
	if len(os.Args) > 1 {
		req, err := model.LoadBatch(os.Args[1])
		if err != nil {
			log.Fatal("load batch", zap.Error(err))
		}
		if body, err = json.Marshal(req); err != nil {
			log.Fatal("encode batch", zap.Error(err))
		}
	}

	resp, err := http.Post(base+"/v1/optimize", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal("submit", zap.Error(err))
	}
	var acc model.JobAccepted
	err = json.NewDecoder(resp.Body).Decode(&acc)
	_ = resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusAccepted {
		log.Fatal("submit rejected", zap.Int("status", resp.StatusCode), zap.Error(err))
	}
	log.Info("job accepted", zap.String("job_id", acc.JobID))

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/jobs/" + acc.JobID + "/events"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial", zap.Error(err))
	}
	defer func() { _ = c.Close() }()
	_ = c.SetReadDeadline(time.Now().Add(time.Minute))

	for {
		var evt events.Event
		if err := c.ReadJSON(&evt); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Warn("read", zap.Error(err))
			}
			break
		}
		log.Info("event", zap.String("type", evt.Type), zap.Any("data", evt.Data))
	}

	st, err := http.Get(base + "/v1/jobs/" + acc.JobID)
	if err != nil {
		log.Fatal("status", zap.Error(err))
	}
	defer func() { _ = st.Body.Close() }()
	var doc map[string]any
	if err := json.NewDecoder(st.Body).Decode(&doc); err != nil {
		log.Fatal("decode status", zap.Error(err))
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	fmt.Println(string(out))
}
