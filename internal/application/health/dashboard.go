package health

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /. The page
// renders the embedded snapshot and then polls /health/json.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	snapshot := strings.ReplaceAll(string(b), "</", "<\\/")

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}
	lastReq := "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		lastReq = fmt.Sprintf("%v %v", m["method"], m["path"])
	}
	pending := "-"
	if health.Queue != nil {
		pending = fmt.Sprint(health.Queue.Pending)
	}

	var rows strings.Builder
	for _, name := range []string{"database", "redis"} {
		dep := health.Dependencies[name]
		class := "err"
		if dep.Status == "connected" {
			class = "ok"
		}
		ping := "?"
		if p, ok := dep.PingMs.(*int64); ok && p != nil {
			ping = fmt.Sprint(*p)
		}
		fmt.Fprintf(&rows, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s">%s · <span id="ping-%s">%s</span> ms</span></div>`,
			name, name, class, html.EscapeString(dep.Status), name, ping)
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Axis · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --brand: #3b82f6; --dark: #0f172a; --muted: #64748b; --bg: #f8fafc; }
    body { background: var(--bg); color: var(--dark); font-family: system-ui, sans-serif; margin: 0; display: flex; justify-content: center; padding: 48px 16px; }
    .container { width: 100%; max-width: 960px; }
    h1 { font-size: 40px; font-weight: 900; letter-spacing: -1.5px; margin: 0 0 24px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
    .card { background: white; border-radius: 16px; padding: 28px; box-shadow: 0 10px 40px -12px rgba(15, 23, 42, 0.12); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: var(--muted); margin-bottom: 16px; }
    .big { font-size: 34px; font-weight: 900; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; border-bottom: 1px solid #f1f5f9; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; font-weight: 800; }
    .ok { background: rgba(59, 130, 246, 0.1); color: var(--brand); }
    .err { background: rgba(239, 68, 68, 0.1); color: #ef4444; }
    footer { margin-top: 16px; font-family: monospace; font-size: 13px; color: var(--muted); }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 id="headline">` + headline + `</h1>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
        <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
        <div class="row"><span>Success Rate</span><span id="success-rate">` + html.EscapeString(health.Traffic.SuccessRate) + `%</span></div>
        <div class="row"><span>Avg Latency</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big" id="uptime">` + fmt.Sprint(health.Runtime.UptimeSeconds) + `s</div>
        <div class="row"><span>Heap Used</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
        <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
        <div class="row"><span>Platform</span><span>` + html.EscapeString(health.Runtime.Platform) + `</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        ` + rows.String() + `
        <div class="row"><span>Email backlog</span><span id="queue">` + pending + `</span></div>
      </div>
    </div>
    <footer>Last inbound: <span id="last-req">` + html.EscapeString(lastReq) + `</span></footer>
  </div>
  <script id="snapshot" type="application/json">` + snapshot + `</script>
  <script>
    const render = (d) => {
      document.getElementById('headline').innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
      document.getElementById('total-req').innerText = d.traffic.totalRequests;
      document.getElementById('failed-count').innerText = d.traffic.failedCount;
      document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
      document.getElementById('avg-time').innerText = d.traffic.avgResponseTime + 'ms';
      document.getElementById('uptime').innerText = d.runtime.uptimeSeconds + 's';
      document.getElementById('mem-heap').innerText = d.runtime.memory.heapUsed + ' MB';
      document.getElementById('goroutines').innerText = d.runtime.goroutines;
      document.getElementById('queue').innerText = d.queue ? d.queue.pending : '-';
      for (const name of ['database', 'redis']) {
        const dep = d.dependencies[name];
        document.getElementById('pill-' + name).className = 'pill ' + (dep.status === 'connected' ? 'ok' : 'err');
        document.getElementById('ping-' + name).innerText = dep.pingMs != null ? dep.pingMs : '?';
      }
      if (d.traffic.lastRequest) document.getElementById('last-req').innerText = d.traffic.lastRequest.method + ' ' + d.traffic.lastRequest.path;
    };
    render(JSON.parse(document.getElementById('snapshot').textContent));
    setInterval(async () => { try { render(await (await fetch('/health/json')).json()); } catch (e) {} }, 10000);
  </script>
</body>
</html>`
}
