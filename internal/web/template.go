package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ahu-sim/internal/status"
)

var tmplFuncs = template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}

var indexTmpl = template.Must(template.New("index").Funcs(tmplFuncs).Parse(indexHTML))

const baseCSS = `body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.alarm { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }`

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AHU Simulator</title>
<style>
` + baseCSS + `
table.readings th { width: auto; }
</style>
</head>
<body>
<h1>AHU Simulator</h1>

<h2>Unit</h2>
<table>
<tr><th>Supply Temp</th><td>{{printf "%.1f" .State.SupplyTemp}} &deg;C</td></tr>
<tr><th>Setpoint</th><td>{{printf "%.1f" .State.Setpoint}} &deg;C</td></tr>
<tr><th>Outside Temp</th><td>{{printf "%.1f" .State.OutsideTemp}} &deg;C</td></tr>
<tr><th>VFD Speed</th><td>{{printf "%.1f" .State.VFDSpeed}} %</td></tr>
<tr><th>Fan</th><td class="{{if eq (stateOrUnknown (printf "%s" .State.Fan)) "ON"}}on{{else if eq (stateOrUnknown (printf "%s" .State.Fan)) "OFF"}}off{{else}}unknown{{end}}">{{stateOrUnknown (printf "%s" .State.Fan)}}</td></tr>
<tr><th>Economizer</th><td>{{printf "%.1f" .State.EconomizerPos}} %</td></tr>
<tr><th>Alarm</th><td>{{if .State.Alarm}}<span class="alarm">{{.State.Alarm}}</span>{{else}}none{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.Topic}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Cycles</th><td>{{.Counters.Cycles}}</td></tr>
<tr><th>Published</th><td>{{.Counters.Published}}</td></tr>
<tr><th>Publish Errors</th><td>{{.Counters.PublishErrors}}</td></tr>
<tr><th>Weather Fallbacks</th><td>{{.Counters.WeatherFallbacks}}</td></tr>
</table>

{{if .Recent}}
<h2>Recent Readings</h2>
<table class="readings">
<tr><th>Time</th><th>Supply</th><th>VFD</th><th>Econ</th><th>Fan</th><th>Alarm</th></tr>
{{range .Recent}}<tr>
<td>{{.Time.UTC.Format "15:04:05"}}</td>
<td>{{printf "%.1f" .State.SupplyTemp}}</td>
<td>{{printf "%.1f" .State.VFDSpeed}}</td>
<td>{{printf "%.1f" .State.EconomizerPos}}</td>
<td>{{.State.Fan}}</td>
<td>{{if .State.Alarm}}<span class="alarm">{{.State.Alarm}}</span>{{else}}-{{end}}</td>
</tr>
{{end}}</table>
{{end}}

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Cadence</th><td>{{.Config.Cadence}}</td></tr>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>Building</th><td>{{.Config.Building}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
