package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/okian/pistes/pkg/logger"
	"github.com/olekukonko/tablewriter"
)

var loadWeapons = []string{"Epee", "Foil", "Saber", "Epee U20", "Foil U20", "Saber U20"}

type cmdLoad struct {
	URL      string        `long:"url" default:"http://localhost:9080" description:"Base URL of the server"`
	Requests int           `short:"n" long:"requests" default:"1000" description:"Number of suggestion requests to send"`
	Workers  int           `short:"w" long:"workers" default:"8" description:"Number of concurrent workers"`
	Timeout  time.Duration `long:"timeout" default:"10s" description:"HTTP request timeout"`
	Seed     uint64        `long:"seed" default:"1" description:"Seed for the generated requests"`
	app      *App
}

// suggestBody is the request shape of POST /suggest.
type suggestBody struct {
	Groups []struct {
		Name         string `json:"name"`
		Participants int    `json:"participants"`
	} `json:"groups"`
	TimeUnit float64 `json:"time_unit"`
	Budget   int     `json:"budget"`
}

// LoadStats summarizes a load run.
type LoadStats struct {
	Sent      int64
	OK        int64
	Refused   int64
	Failed    int64
	Duration  time.Duration
	Latencies []time.Duration
}

// generateRequests builds n reproducible suggestion requests.
func generateRequests(n int, seed uint64) []suggestBody {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]suggestBody, n)
	for i := range out {
		groupCount := 2 + r.IntN(3)
		names := slices.Clone(loadWeapons)
		r.Shuffle(len(names), func(a, b int) { names[a], names[b] = names[b], names[a] })
		body := suggestBody{TimeUnit: float64(3 + r.IntN(5)), Budget: 3 + r.IntN(10)}
		for _, name := range names[:groupCount] {
			body.Groups = append(body.Groups, struct {
				Name         string `json:"name"`
				Participants int    `json:"participants"`
			}{Name: name, Participants: 2 + r.IntN(11)})
		}
		out[i] = body
	}
	return out
}

// Execute sends the requests from a worker pool and prints a summary.
func (cmd *cmdLoad) Execute([]string) error {
	ctx := cmd.app.ctx
	stats, err := runLoad(ctx, cmd.URL, generateRequests(cmd.Requests, cmd.Seed), cmd.Workers, cmd.Timeout)
	if err != nil {
		return err
	}
	if err := stats.writeTable(cmd.app.stdout); err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%w: %d of %d requests", ErrLoadFailed, stats.Failed, stats.Sent)
	}
	return nil
}

func runLoad(ctx context.Context, baseURL string, bodies []suggestBody, workers int, timeout time.Duration) (*LoadStats, error) {
	log := logger.Named("load")
	client := &http.Client{Timeout: timeout}
	url := baseURL + "/suggest"
	workers = max(workers, 1)

	log.Info(ctx, "starting load run",
		logger.String("url", url),
		logger.Int("requests", len(bodies)),
		logger.Int("workers", workers),
	)

	var (
		sent, ok, refused, failed atomic.Int64
		mu                        sync.Mutex
		latencies                 = make([]time.Duration, 0, len(bodies))
		wg                        sync.WaitGroup
	)
	work := make(chan suggestBody, workers*2)
	start := time.Now()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for body := range work {
				began := time.Now()
				status, err := postSuggest(ctx, client, url, body)
				elapsed := time.Since(began)

				sent.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
					log.Debug(ctx, "request failed", logger.Error(err))
				case status == http.StatusOK:
					ok.Add(1)
				case status == http.StatusUnprocessableEntity:
					refused.Add(1)
				default:
					failed.Add(1)
					log.Debug(ctx, "unexpected status", logger.Int("status", status))
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(work)
		for _, b := range bodies {
			select {
			case <-ctx.Done():
				return
			case work <- b:
			}
		}
	}()
	wg.Wait()

	slices.Sort(latencies)
	stats := &LoadStats{
		Sent:      sent.Load(),
		OK:        ok.Load(),
		Refused:   refused.Load(),
		Failed:    failed.Load(),
		Duration:  time.Since(start),
		Latencies: latencies,
	}
	log.Info(ctx, "load run finished",
		logger.Any("sent", stats.Sent),
		logger.Any("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, ctx.Err()
}

func postSuggest(ctx context.Context, client *http.Client, url string, body suggestBody) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Percentile returns the latency below which p of the requests completed.
func (s *LoadStats) Percentile(p float64) time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	i := int(p * float64(len(s.Latencies)-1))
	return s.Latencies[i]
}

func (s *LoadStats) writeTable(w io.Writer) error {
	rate := 0.0
	if s.Duration > 0 {
		rate = float64(s.Sent) / s.Duration.Seconds()
	}
	table := tablewriter.NewWriter(w)
	table.Header("Sent", "OK", "Refused", "Failed", "Req/s", "p50", "p99")
	if err := table.Append([]string{
		humanize.Comma(s.Sent),
		humanize.Comma(s.OK),
		humanize.Comma(s.Refused),
		humanize.Comma(s.Failed),
		humanize.FtoaWithDigits(rate, 1),
		s.Percentile(0.50).Round(time.Microsecond).String(),
		s.Percentile(0.99).Round(time.Microsecond).String(),
	}); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
