//go:build ignore

// Loadtest sends concurrent requests through the dispatcher while rotating
// the Host header, then reports which backend answered each host and how
// fast.
//
// Usage:
//
//	go run loadtest.go -url http://localhost:8080/ -hosts shop.example.com,blog.example.com,nowhere.org
//	go run loadtest.go -concurrency 50 -requests 5000 -out summary.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type hostStats struct {
	Backends    map[string]int32 `json:"backends"`
	StatusCodes map[int]int32    `json:"status_codes"`
	Latencies   []time.Duration  `json:"-"`
	P50         float64          `json:"p50_ms"`
	P95         float64          `json:"p95_ms"`
	P99         float64          `json:"p99_ms"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/", "Dispatcher URL")
		hosts       = flag.String("hosts", "shop.example.com,blog.example.com,nowhere.org", "Comma separated Host headers to rotate through")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
		verbose     = flag.Bool("v", false, "Verbose per-request logging to stdout")
	)
	flag.Parse()

	hostList := strings.Split(*hosts, ",")
	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var failure int32

	stats := make(map[string]*hostStats, len(hostList))
	for _, h := range hostList {
		stats[h] = &hostStats{Backends: map[string]int32{}, StatusCodes: map[int]int32{}}
	}
	var statsMu sync.Mutex

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				host := hostList[idx%len(hostList)]

				req, err := http.NewRequest(http.MethodGet, *url, nil)
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}
				req.Host = host

				start := time.Now()
				resp, err := client.Do(req)
				dur := time.Since(start)
				if err != nil {
					atomic.AddInt32(&failure, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d host=%s error=%v\n", workerID, idx, host, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				backend := resp.Header.Get("X-Backend-Server")
				if backend == "" {
					backend = "(none)"
				}

				statsMu.Lock()
				hs := stats[host]
				hs.Backends[backend]++
				hs.StatusCodes[resp.StatusCode]++
				hs.Latencies = append(hs.Latencies, dur)
				statsMu.Unlock()

				if *verbose {
					fmt.Printf("[%d] idx=%d host=%s backend=%s status=%d dur=%v\n", workerID, idx, host, backend, resp.StatusCode, dur)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	totalDuration := time.Since(testStart)

	fmt.Println("--- Virtual Host Load Test ---")
	fmt.Printf("Target: %s  Requests: %d  Concurrency: %d\n", *url, *requests, *concurrency)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s  Transport failures: %d\n",
		totalDuration, float64(*requests)/totalDuration.Seconds(), failure)

	sort.Strings(hostList)
	for _, h := range hostList {
		hs := stats[h]
		sort.Slice(hs.Latencies, func(i, j int) bool { return hs.Latencies[i] < hs.Latencies[j] })
		hs.P50, hs.P95, hs.P99 = pick(hs.Latencies, 0.50), pick(hs.Latencies, 0.95), pick(hs.Latencies, 0.99)

		fmt.Printf("\n%s\n", h)
		for b, n := range hs.Backends {
			fmt.Printf("  backend %s -> %d\n", b, n)
		}
		for code, n := range hs.StatusCodes {
			fmt.Printf("  status %d -> %d\n", code, n)
		}
		fmt.Printf("  p50=%.2fms p95=%.2fms p99=%.2fms\n", hs.P50, hs.P95, hs.P99)
	}

	if *outJSON != "" {
		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]any{
			"target":      *url,
			"requests":    *requests,
			"concurrency": *concurrency,
			"duration_ms": totalDuration.Milliseconds(),
			"failures":    failure,
			"hosts":       stats,
		})
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failure > 0 {
		os.Exit(2)
	}
}

func pick(sorted []time.Duration, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return float64(sorted[int(float64(len(sorted)-1)*p)].Microseconds()) / 1000.0
}
