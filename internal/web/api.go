package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/ahu-sim/internal/status"
)

// ConnChecker reports broker connectivity. This is a local interface to
// avoid importing internal/mqtt from web.
type ConnChecker interface {
	IsConnected() bool
}

// APIServer serves the telemetry status API backed by the last-message
// cache: what was last heard on each topic, from which device, and when.
type APIServer struct {
	httpServer *http.Server
	cache      *status.Cache
	conn       ConnChecker
	startTime  time.Time
}

// NewAPI creates an APIServer over the given cache.
func NewAPI(addr string, cache *status.Cache, conn ConnChecker, startTime time.Time) *APIServer {
	a := &APIServer{cache: cache, conn: conn, startTime: startTime}

	mux := http.NewServeMux()
	mux.HandleFunc("/", a.handleIndex)
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/last", a.handleLast)
	mux.HandleFunc("/topics", a.handleTopics)
	mux.HandleFunc("/stats", a.handleStats)

	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return a
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (a *APIServer) ListenAndServe() error {
	return a.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (a *APIServer) Serve(ln net.Listener) error {
	return a.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

// HealthJSON is the health endpoint response.
type HealthJSON struct {
	Status       string         `json:"status"`
	Timestamp    string         `json:"timestamp"`
	Services     HealthServices `json:"services"`
	CachedTopics int            `json:"cached_topics"`
}

// HealthServices flags each backing service.
type HealthServices struct {
	MQTT bool `json:"mqtt"`
}

// LastJSON wraps the cached message for one topic. Timestamp is the
// receive time, not the producer's ts.
type LastJSON struct {
	Timestamp string          `json:"timestamp"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
}

// TopicsJSON lists every known topic, most recently seen first.
type TopicsJSON struct {
	Topics []TopicJSON `json:"topics"`
	Count  int         `json:"count"`
}

// TopicJSON is one row of the topic listing.
type TopicJSON struct {
	Topic    string `json:"topic"`
	LastSeen string `json:"last_seen"`
	Device   string `json:"device"`
	Building string `json:"building"`
}

// StatsJSON summarizes the telemetry stream.
type StatsJSON struct {
	ActiveTopics    int           `json:"active_topics"`
	UptimeSeconds   int64         `json:"uptime_seconds"`
	Services        StatsServices `json:"services"`
	UniqueBuildings int           `json:"unique_buildings"`
	UniqueDevices   int           `json:"unique_devices"`
}

// StatsServices flags each backing service for the stats endpoint.
type StatsServices struct {
	MQTTConnected bool `json:"mqtt_connected"`
}

func (a *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthJSON{
		Status:       "healthy",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Services:     HealthServices{MQTT: a.conn.IsConnected()},
		CachedTopics: a.cache.Len(),
	})
}

func (a *APIServer) handleLast(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "missing topic parameter")
		return
	}

	e, ok := a.cache.Last(topic)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data found for topic: %s", topic))
		return
	}

	writeJSON(w, http.StatusOK, LastJSON{
		Timestamp: e.LastSeen.UTC().Format(time.RFC3339),
		Topic:     e.Topic,
		Payload:   e.Payload,
	})
}

func (a *APIServer) handleTopics(w http.ResponseWriter, r *http.Request) {
	entries := a.cache.Topics()
	out := TopicsJSON{
		Topics: make([]TopicJSON, 0, len(entries)),
		Count:  len(entries),
	}
	for _, e := range entries {
		out.Topics = append(out.Topics, TopicJSON{
			Topic:    e.Topic,
			LastSeen: e.LastSeen.UTC().Format(time.RFC3339),
			Device:   orUnknown(e.Device),
			Building: orUnknown(e.Building),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	st := a.cache.Stats()
	writeJSON(w, http.StatusOK, StatsJSON{
		ActiveTopics:    st.ActiveTopics,
		UptimeSeconds:   int64(time.Since(a.startTime).Truncate(time.Second).Seconds()),
		Services:        StatsServices{MQTTConnected: a.conn.IsConnected()},
		UniqueBuildings: st.UniqueBuildings,
		UniqueDevices:   st.UniqueDevices,
	})
}

func (a *APIServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct {
		Entries   []status.Entry
		Stats     status.Stats
		Connected bool
		Uptime    time.Duration
	}{
		Entries:   a.cache.Topics(),
		Stats:     a.cache.Stats(),
		Connected: a.conn.IsConnected(),
		Uptime:    time.Since(a.startTime),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	apiTmpl.Execute(w, data)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	data, _ := json.MarshalIndent(v, "", "  ")
	w.Write(data)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

var apiTmpl = template.Must(template.New("api").Funcs(tmplFuncs).Parse(apiHTML))

const apiHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Telemetry Status</title>
<style>
` + baseCSS + `
table.topics th { width: auto; }
</style>
</head>
<body>
<h1>Telemetry Status</h1>

<h2>Service</h2>
<table>
<tr><th>MQTT</th><td class="{{if .Connected}}connected{{else}}disconnected{{end}}">{{if .Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Active Topics</th><td>{{.Stats.ActiveTopics}}</td></tr>
<tr><th>Buildings</th><td>{{.Stats.UniqueBuildings}}</td></tr>
<tr><th>Devices</th><td>{{.Stats.UniqueDevices}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
</table>

{{if .Entries}}
<h2>Topics</h2>
<table class="topics">
<tr><th>Topic</th><th>Building</th><th>Device</th><th>Last Seen</th></tr>
{{range .Entries}}<tr>
<td>{{.Topic}}</td>
<td>{{.Building}}</td>
<td>{{.Device}}</td>
<td>{{.LastSeen.UTC.Format "15:04:05"}}</td>
</tr>
{{end}}</table>
{{else}}
<p>No telemetry received yet.</p>
{{end}}

<p><a href="/health">health</a> &middot; <a href="/topics">topics</a> &middot; <a href="/stats">stats</a></p>
</body>
</html>
`
