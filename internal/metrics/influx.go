package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// InfluxConfig holds InfluxDB connection configuration
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	RunID  string
	Scheme string
}

// Influx writes throughput points through the non-blocking write API.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	tags     map[string]string
}

// NewInflux connects and checks server health before returning.
func NewInflux(ctx context.Context, cfg InfluxConfig) (*Influx, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influx health check: %w", err)
	}
	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		client.Close()
		return nil, fmt.Errorf("influx health check failed: %s", msg)
	}

	return &Influx{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		tags:     map[string]string{"run_id": cfg.RunID, "scheme": cfg.Scheme},
	}, nil
}

// Errors exposes asynchronous write failures.
func (i *Influx) Errors() <-chan error { return i.writeAPI.Errors() }

func (i *Influx) RecordRate(worker int, rate float64) {
	tags := i.withTags("worker", strconv.Itoa(worker))
	p := write.NewPoint("vanity_rate", tags, map[string]interface{}{"addr_per_sec": rate}, time.Now())
	i.writeAPI.WritePoint(p)
}

func (i *Influx) RecordFound(address string, attempts uint64, elapsed time.Duration) {
	tags := i.withTags("address", address)
	fields := map[string]interface{}{
		"attempts":        int64(attempts),
		"elapsed_seconds": elapsed.Seconds(),
	}
	i.writeAPI.WritePoint(write.NewPoint("vanity_found", tags, fields, time.Now()))
}

func (i *Influx) Close() {
	i.writeAPI.Flush()
	i.client.Close()
}

func (i *Influx) withTags(kv ...string) map[string]string {
	out := make(map[string]string, len(i.tags)+len(kv)/2)
	for k, v := range i.tags {
		out[k] = v
	}
	for j := 0; j+1 < len(kv); j += 2 {
		out[kv[j]] = kv[j+1]
	}
	return out
}
