package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	glucoseGrpc "liyu1981.xyz/glucose-watch-service/pkg/grpc"
)

// Opens maxStreams concurrent watchers (SSE or gRPC, picked at random), posts
// maxReadings manual readings as the admin and reports how long each update
// took to reach every watcher. The server needs an athlete designated first:
//
//	glucose-watch athlete set --email kid@example.com

var maxStreams int = 200
var maxReadings int = 50
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var adminEmail = envOr("BENCH_ADMIN_EMAIL", "admin@example.com")
var adminPassword = envOr("BENCH_ADMIN_PASSWORD", "password123")

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

type delivery struct {
	value    float64
	received time.Time
}

func main() {
	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}
	fmt.Printf("http server verified\n")

	token := login()
	fmt.Printf("logged in as %s\n", adminEmail)

	var grpcClient *glucoseGrpc.GlucoseServiceClient
	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err == nil {
		defer conn.Close()
		client := glucoseGrpc.NewGlucoseServiceClient(conn)
		checkCtx, checkCancel := context.WithTimeout(context.Background(), 2*time.Second)
		checkCtx = metadata.AppendToOutgoingContext(checkCtx, "authorization", "Bearer "+token)
		if _, err := client.GetStatus(checkCtx, &emptypb.Empty{}); err == nil {
			grpcClient = client
			fmt.Printf("grpc server verified\n")
		} else {
			fmt.Printf("grpc server not available, using SSE only: %v\n", err)
		}
		checkCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make([][]delivery, maxStreams)
	ready := sync.WaitGroup{}
	done := sync.WaitGroup{}
	for i := range maxStreams {
		ready.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			if grpcClient != nil && flipCoin() {
				results[i] = watchGrpc(ctx, grpcClient, token, &ready)
			} else {
				results[i] = watchSSE(ctx, token, &ready)
			}
		}()
	}
	ready.Wait()
	fmt.Printf("opened %v streams\n", maxStreams)

	sent := make(map[float64]time.Time, maxReadings)
	base := time.Now().Add(-time.Duration(maxReadings) * time.Minute).UTC().Truncate(time.Second)
	startTime := time.Now()
	for i := range maxReadings {
		value := float64(40 + i*5)
		sent[value] = time.Now()
		postReading(token, value, base.Add(time.Duration(i)*time.Minute))
		fmt.Printf("\rposted reading %v", i+1)
	}
	fmt.Println()

	time.Sleep(2 * time.Second)
	cancel()
	done.Wait()
	usedTime := time.Since(startTime)

	var latencies []time.Duration
	complete := 0
	for _, deliveries := range results {
		if len(deliveries) == maxReadings {
			complete++
		}
		for _, d := range deliveries {
			if at, ok := sent[d.value]; ok {
				latencies = append(latencies, d.received.Sub(at))
			}
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("streams with every update: %v/%v\n", complete, maxStreams)
	fmt.Printf("deliveries: %v, throughput=%v events/second\n", len(latencies), float64(len(latencies))/usedTime.Seconds())
	if len(latencies) > 0 {
		fmt.Printf("latency p50=%v p99=%v max=%v\n",
			latencies[len(latencies)/2], latencies[len(latencies)*99/100], latencies[len(latencies)-1])
	}
}

func flipCoin() bool {
	return rnd.Int31n(100000)%2 == 0
}

func login() string {
	payload, _ := json.Marshal(map[string]string{"email": adminEmail, "password": adminPassword})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", httpHostPort), "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatal("Failed to log in:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("login failed with status %v", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatal("Failed to decode login response:", err)
	}
	return body.Token
}

func postReading(token string, value float64, at time.Time) {
	payload, _ := json.Marshal(map[string]any{"value": value, "recordedAt": at.Format(time.RFC3339)})
	req, _ := http.NewRequest("POST", fmt.Sprintf("http://%s/api/glucose", httpHostPort), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		fmt.Printf("\nresponse status code %v\n", resp.StatusCode)
	}
}

func readingValue(payload map[string]any) (float64, bool) {
	if payload["type"] != "glucose-update" {
		return 0, false
	}
	reading, ok := payload["reading"].(map[string]any)
	if !ok {
		return 0, false
	}
	value, ok := reading["value"].(float64)
	return value, ok
}

func watchSSE(ctx context.Context, token string, ready *sync.WaitGroup) []delivery {
	req, _ := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("http://%s/api/notifications/stream", httpHostPort), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ready.Done()
		fmt.Printf("\nstream error: %v\n", err)
		return nil
	}
	defer resp.Body.Close()

	var deliveries []delivery
	connected := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			continue
		}
		if !connected {
			connected = true
			ready.Done()
			continue
		}
		if value, ok := readingValue(payload); ok {
			deliveries = append(deliveries, delivery{value: value, received: time.Now()})
		}
	}
	if !connected {
		ready.Done()
	}
	return deliveries
}

func watchGrpc(ctx context.Context, client *glucoseGrpc.GlucoseServiceClient, token string, ready *sync.WaitGroup) []delivery {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	stream, err := client.Watch(ctx, &emptypb.Empty{})
	if err != nil {
		ready.Done()
		fmt.Printf("\nwatch error: %v\n", err)
		return nil
	}

	var deliveries []delivery
	connected := false
	for {
		msg, err := stream.Recv()
		if err != nil {
			break
		}
		if !connected {
			connected = true
			ready.Done()
			continue
		}
		if value, ok := readingValue(msg.AsMap()); ok {
			deliveries = append(deliveries, delivery{value: value, received: time.Now()})
		}
	}
	if !connected {
		ready.Done()
	}
	return deliveries
}
