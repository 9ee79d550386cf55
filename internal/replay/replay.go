// Package replay publishes Building Data Genome CSV exports as telemetry.
// Weather files become one record per row from a single weather station;
// meter files fan each row out into one record per building column.
package replay

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/ahu-sim/internal/logger"
	"github.com/sweeney/ahu-sim/internal/mqtt"
)

// Record is one telemetry message reconstructed from the CSV.
type Record struct {
	TS       int64                  `json:"ts"`
	Device   string                 `json:"device"`
	Building string                 `json:"building"`
	Points   map[string]interface{} `json:"points"`
}

// MeterTypeFromName classifies a BDG file by its name: electricity, gas,
// water, weather, or unknown.
func MeterTypeFromName(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "electricity"):
		return "electricity"
	case strings.Contains(name, "gas"):
		return "gas"
	case strings.Contains(name, "water"):
		return "water"
	case strings.Contains(name, "weather"):
		return "weather"
	default:
		return "unknown"
	}
}

// ParseFile reads a BDG CSV export and returns its records sorted by
// timestamp. The file name decides how columns are interpreted.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	records, err := Parse(f, MeterTypeFromName(filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// Parse reads CSV rows from r, interpreting columns per meterType.
// The header must contain a "timestamp" or "ts" column.
func Parse(r io.Reader, meterType string) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	tsCol := -1
	for i, h := range header {
		if h == "timestamp" || h == "ts" {
			tsCol = i
			break
		}
	}
	if tsCol < 0 {
		return nil, errors.New("no timestamp column found")
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if tsCol >= len(row) {
			continue
		}

		ts, err := parseTimestamp(row[tsCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tsMs := ts.UnixMilli()

		if meterType == "weather" {
			out = append(out, weatherRecord(header, row, tsCol, tsMs))
		} else {
			out = append(out, meterRecords(header, row, tsCol, tsMs, meterType)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TS < out[j].TS })

	logger.Info("parsed %d records", len(out))
	return out, nil
}

// weatherRecord maps a row to a single weather_station reading: every
// populated column except site_id becomes a point, site_id names the
// building.
func weatherRecord(header, row []string, tsCol int, tsMs int64) Record {
	building := "unknown_site"
	points := make(map[string]interface{})
	for i, name := range header {
		if i == tsCol || i >= len(row) || row[i] == "" {
			continue
		}
		if name == "site_id" {
			building = row[i]
			continue
		}
		points[name] = pointValue(row[i])
	}
	return Record{
		TS:       tsMs,
		Device:   "weather_station",
		Building: building,
		Points:   points,
	}
}

// meterRecords fans a row out into one record per meter column. BDG meter
// columns are named <building>_<type>_<name>; columns that do not fit that
// shape are skipped.
func meterRecords(header, row []string, tsCol int, tsMs int64, meterType string) []Record {
	var out []Record
	for i, name := range header {
		if i == tsCol || i >= len(row) || row[i] == "" || name == "site_id" {
			continue
		}
		parts := strings.SplitN(name, "_", 3)
		if len(parts) < 3 {
			continue
		}
		out = append(out, Record{
			TS:       tsMs,
			Device:   name,
			Building: parts[0],
			Points: map[string]interface{}{
				meterType:    pointValue(row[i]),
				"meter_type": meterType,
			},
		})
	}
	return out
}

// pointValue keeps numeric cells as floats and everything else as strings.
func pointValue(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

var tsLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts the date formats seen in BDG exports plus raw
// epoch milliseconds.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range tsLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// TopicFor returns the topic a record publishes on.
func TopicFor(prefix string, rec Record) string {
	building := rec.Building
	if building == "" {
		building = "unknown"
	}
	device := rec.Device
	if device == "" {
		device = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s/telemetry", prefix, building, device)
}

// Runner paces records against the wall clock and publishes them.
type Runner struct {
	pub    mqtt.Publisher
	prefix string
	speed  float64

	now func() time.Time
}

// NewRunner creates a Runner publishing under the given topic prefix.
// speed scales replay time: 1.0 is real time, 10.0 is ten times faster.
func NewRunner(pub mqtt.Publisher, prefix string, speed float64) *Runner {
	if speed <= 0 {
		speed = 1.0
	}
	return &Runner{
		pub:    pub,
		prefix: prefix,
		speed:  speed,
		now:    time.Now,
	}
}

// waitFor returns how long to pause before a record whose source timestamp
// is recTS, given the replay of firstTS started elapsed ago.
func waitFor(recTS, firstTS int64, speed float64, elapsed time.Duration) time.Duration {
	sourceGap := time.Duration(recTS-firstTS) * time.Millisecond
	target := time.Duration(float64(sourceGap) / speed)
	return target - elapsed
}

// Run publishes every record in order, honoring their relative timing.
// Publish failures are logged and skipped; cancellation stops the replay
// between records and returns the context's error.
func (r *Runner) Run(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return errors.New("no records to replay")
	}
	logger.Info("starting replay of %d records at %gx speed", len(records), r.speed)

	start := r.now()
	first := records[0].TS

	for i, rec := range records {
		if wait := waitFor(rec.TS, first, r.speed, r.now().Sub(start)); wait > 0 {
			select {
			case <-ctx.Done():
				logger.Info("replay canceled after %d records", i)
				return ctx.Err()
			case <-time.After(wait):
			}
		} else if err := ctx.Err(); err != nil {
			logger.Info("replay canceled after %d records", i)
			return err
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		topic := TopicFor(r.prefix, rec)
		if err := r.pub.Publish(topic, payload); err != nil {
			logger.Warn("publish %s: %v", topic, err)
		}

		if i%100 == 0 {
			logger.Info("replayed %d/%d records", i+1, len(records))
		}
	}

	logger.Info("replay completed")
	return nil
}

// SampleCSV copies the header and first n data rows of src into dst,
// creating small fixtures from the full BDG exports.
func SampleCSV(src, dst string, n int) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create sample: %w", err)
	}
	defer out.Close()

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cw := csv.NewWriter(out)

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < n; i++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush sample: %w", err)
	}
	return nil
}
