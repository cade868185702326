// Package main - night-crew
// Load generator: many fake renderers hammering a hosted shift with input
// and commands over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/network"
)

// Config for the crew.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks performance metrics.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Snapshots        int64
	Errors           int64
	Rejected         int64

	mu        sync.Mutex
	Latencies []time.Duration
}

// Commands a crew member may send. Pickup and movement go as input.
var crewCommands = []engine.CommandKind{
	engine.CmdCycleTool,
	engine.CmdUseTool,
	engine.CmdToggleFlashlight,
	engine.CmdClean,
	engine.CmdBarricade,
	engine.CmdShowObjectives,
	engine.CmdEatSnack,
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 20, "Number of concurrent renderers")
	interval := flag.Duration("interval", 100*time.Millisecond, "Message interval per renderer")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	output := flag.String("out", "night_crew_results.json", "Where to write the JSON results (empty to skip)")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("NIGHT CREW - renderer load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats, err := runCrew(ctx, config)
	printResults(stats, config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "night-crew:", err)
		os.Exit(1)
	}
}

func runCrew(ctx context.Context, config Config) (*Stats, error) {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < config.NumClients; i++ {
		id := i
		g.Go(func() error {
			runClient(gctx, id, config, stats)
			return nil
		})
		// Stagger client starts to avoid a thundering herd.
		select {
		case <-gctx.Done():
		case <-time.After(10 * time.Millisecond):
		}
	}
	fmt.Printf("All %d renderers started\n\n", config.NumClients)

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				fmt.Printf("Progress: sent=%s recv=%s errors=%d\n",
					humanize.Comma(atomic.LoadInt64(&stats.MessagesSent)),
					humanize.Comma(atomic.LoadInt64(&stats.MessagesReceived)),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	})

	err := g.Wait()
	if err == nil && ctx.Err() == context.Canceled {
		err = ctx.Err()
	}
	return stats, err
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(clientID)))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		fmt.Printf("Renderer %d: connection failed: %v\n", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			var msg struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &msg) == nil {
				switch msg.Type {
				case network.MsgTypeSnapshot:
					atomic.AddInt64(&stats.Snapshots, 1)
				case network.MsgTypeError:
					atomic.AddInt64(&stats.Rejected, 1)
				}
			}
		}
	}()

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case <-ticker.C:
			msg := randomMessage(rng)
			start := time.Now()
			if err := conn.WriteJSON(msg); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

func randomMessage(rng *rand.Rand) network.ClientMessage {
	if rng.Intn(4) > 0 {
		in := player.ActionState{
			Up:     rng.Intn(3) == 0,
			Down:   rng.Intn(3) == 0,
			Left:   rng.Intn(3) == 0,
			Right:  rng.Intn(3) == 0,
			Run:    rng.Intn(5) == 0,
			Pickup: rng.Intn(10) == 0,
		}
		return network.ClientMessage{Type: network.MsgTypeInput, Input: &in}
	}
	cmd := engine.Command{Kind: crewCommands[rng.Intn(len(crewCommands))]}
	return network.ClientMessage{Type: network.MsgTypeCommand, Command: &cmd}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("NIGHT CREW RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	snaps := atomic.LoadInt64(&stats.Snapshots)
	errs := atomic.LoadInt64(&stats.Errors)
	rejected := atomic.LoadInt64(&stats.Rejected)

	fmt.Printf("Messages sent:     %s\n", humanize.Comma(sent))
	fmt.Printf("Messages received: %s (%s snapshots)\n", humanize.Comma(recv), humanize.Comma(snaps))
	fmt.Printf("Rejected:          %d\n", rejected)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	stats.mu.Lock()
	lat := append([]time.Duration(nil), stats.Latencies...)
	stats.mu.Unlock()
	var p50, p99 time.Duration
	if len(lat) > 0 {
		sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
		p50 = lat[len(lat)/2]
		p99 = lat[len(lat)*99/100]
		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", lat[0])
		fmt.Printf("  P50: %v\n", p50)
		fmt.Printf("  P99: %v\n", p99)
		fmt.Printf("  Max: %v\n", lat[len(lat)-1])
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0:
		fmt.Println("PASSED: the store handled the crew")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors detected")
	default:
		fmt.Println("FAILED: high error rate")
	}
	fmt.Println("=========================================")

	if config.Output == "" {
		return
	}
	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"snapshots":          snaps,
		"rejected":           rejected,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"latency_p50_us":     p50.Microseconds(),
		"latency_p99_us":     p99.Microseconds(),
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		fmt.Fprintln(os.Stderr, "write results:", err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
