package web

import (
	"html/template"
	"io"
)

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type indexView struct {
	Title          string
	PollMs         int64
	Overlay        OverlayJSON
	OverlayContent template.HTML
}

func renderIndex(w io.Writer, opts Options, overlay OverlayJSON) error {
	return indexTmpl.Execute(w, indexView{
		Title:          opts.Title,
		PollMs:         opts.PollInterval.Milliseconds(),
		Overlay:        overlay,
		OverlayContent: template.HTML(overlay.HTML),
	})
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: transparent; font-family: sans-serif; }
#status-panel { position: fixed; top: 10px; right: 10px; padding: 6px 10px; background: rgba(0,0,0,.6); color: #fff; border-radius: 4px; font-size: 13px; }
#status-panel.hidden { display: none; }
.status-indicator { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 6px; vertical-align: middle; }
.status-indicator.connected { background: #2ecc71; }
.status-indicator.connecting { background: #f39c12; }
.status-indicator.disconnected { background: #e74c3c; }
#overlay-container { position: fixed; bottom: 40px; left: 50%; transform: translateX(-50%); opacity: 0; transition: opacity .4s; }
#overlay-container.show { opacity: 1; }
.event-header { display: flex; justify-content: space-between; gap: 1em; font-weight: bold; }
.event-content { white-space: pre-wrap; font-family: monospace; margin-top: .5em; }
.event-id { font-size: 11px; color: #999; margin-top: .5em; }
.overlay-image { max-width: 480px; border-radius: 8px; }
.username-display { text-align: center; color: #fff; font-size: 20px; text-shadow: 0 0 4px #000; }
</style>
</head>
<body>
<div id="status-panel" class="{{if not .Overlay.StatusPanelVisible}}hidden{{end}}">
<span id="status-indicator" class="status-indicator {{.Overlay.Status.Indicator}}"></span><span id="status-text">{{.Overlay.Status.Text}}</span>
</div>
<div id="overlay-container" class="{{if .Overlay.Visible}}show{{end}}"><div id="event-display">{{.OverlayContent}}</div></div>
<script>
(function() {
  var pollMs = {{.PollMs}};
  var seq = {{.Overlay.Seq}};
  var panel = document.getElementById("status-panel");
  var indicator = document.getElementById("status-indicator");
  var text = document.getElementById("status-text");
  var container = document.getElementById("overlay-container");
  var display = document.getElementById("event-display");

  function apply(s) {
    indicator.className = "status-indicator " + s.status.indicator;
    text.textContent = s.status.text;
    panel.className = s.status_panel_visible ? "" : "hidden";
    if (s.seq !== seq) {
      seq = s.seq;
      display.innerHTML = s.html;
    }
    container.className = s.visible ? "show" : "";
  }

  function poll() {
    fetch("/overlay.json", { cache: "no-store" })
      .then(function(r) { return r.json(); })
      .then(apply)
      .catch(function() {
        indicator.className = "status-indicator disconnected";
        text.textContent = "Display server unreachable";
      })
      .finally(function() { setTimeout(poll, pollMs); });
  }
  setTimeout(poll, pollMs);
})();
</script>
</body>
</html>
`
