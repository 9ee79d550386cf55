// Package weather supplies outdoor air temperature samples, either from a
// simple diurnal model or from the open-meteo service with the model as
// fallback.
package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sweeney/ahu-sim/internal/logger"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	requestTimeout = 5 * time.Second
)

// Source yields one outdoor temperature reading per call, in celsius.
// Implementations never fail; a source that cannot reach its backing data
// degrades to a synthetic value instead.
type Source interface {
	Sample() float64
}

// Simulated follows a sine of the local hour: coolest at midnight, warmest
// at noon, swinging 10 degrees around a 20 degree base with a little jitter.
type Simulated struct {
	now func() time.Time
	rng *rand.Rand
}

func NewSimulated(now func() time.Time, rng *rand.Rand) *Simulated {
	return &Simulated{now: now, rng: rng}
}

func (s *Simulated) Sample() float64 {
	hour := float64(s.now().Hour())
	base := 20 + 10*math.Sin((hour-6)*math.Pi/12)
	return base + (s.rng.Float64()*4 - 2)
}

// Live fetches the current temperature for a fixed coordinate from
// open-meteo. Any fetch problem is logged and answered from the fallback
// model, so a sample is always produced on time.
type Live struct {
	lat, lon   float64
	baseURL    string
	client     *http.Client
	fallback   *Simulated
	onFallback func()
}

// NewLive builds a live source for the given coordinate. onFallback, if
// non-nil, is invoked once per sample that had to use the fallback model.
func NewLive(lat, lon float64, fallback *Simulated, onFallback func()) *Live {
	return &Live{
		lat:        lat,
		lon:        lon,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: requestTimeout},
		fallback:   fallback,
		onFallback: onFallback,
	}
}

func (l *Live) Sample() float64 {
	temp, err := l.fetch()
	if err != nil {
		logger.Warn("weather fetch failed, using simulated value: %v", err)
		if l.onFallback != nil {
			l.onFallback()
		}
		return l.fallback.Sample()
	}
	return temp
}

func (l *Live) fetch() (float64, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(l.lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(l.lon, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("temperature_unit", "celsius")

	resp, err := l.client.Get(l.baseURL + "?" + q.Encode())
	if err != nil {
		return 0, fmt.Errorf("request weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather service returned %s", resp.Status)
	}

	var body struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode weather response: %w", err)
	}
	return body.CurrentWeather.Temperature, nil
}
