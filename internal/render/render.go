package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rickgao/overlay-monitor/internal/model"
)

const (
	// UnknownUser is shown when an image event carries no username.
	UnknownUser = "Unknown User"
	// NoContent is shown for a text event with an empty body.
	NoContent = "No content"
	// TimestampLayout is the display format for event timestamps.
	TimestampLayout = "Jan 2, 2006, 3:04:05 PM"
)

var fragmentTmpl = template.Must(template.New("fragment").Parse(`
{{- define "image" -}}
<div class="image-overlay"><img src="{{.ImagePath}}" alt="Generated Image" class="overlay-image" /><div class="username-display">{{.Username}}</div></div>
{{- end -}}
{{- define "text" -}}
<div class="event-header"><span class="event-type {{.Class}}">{{.Label}}</span><span class="event-timestamp">{{.Timestamp}}</span></div><div class="event-content">{{.Content}}</div>
{{- if .MessageID}}<div class="event-id">ID: {{.MessageID}}</div>{{end -}}
{{- end -}}
`))

// Renderer formats events for one display location.
type Renderer struct {
	loc *time.Location
}

// New creates a Renderer that shows timestamps in loc (nil means local time).
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{loc: loc}
}

type imageView struct {
	ImagePath string
	Username  string
}

type textView struct {
	Class     string
	Label     string
	Timestamp string
	Content   string
	MessageID string
}

// Event renders ev as an HTML fragment.
func (r *Renderer) Event(ev model.DisplayableEvent) (template.HTML, error) {
	var buf bytes.Buffer
	var err error

	if ev.HasImage() {
		username := ev.Username
		if username == "" {
			username = UnknownUser
		}
		err = fragmentTmpl.ExecuteTemplate(&buf, "image", imageView{
			ImagePath: ev.ImagePath,
			Username:  username,
		})
	} else {
		err = fragmentTmpl.ExecuteTemplate(&buf, "text", textView{
			Class:     cssClass(ev.Kind),
			Label:     Label(ev.Kind),
			Timestamp: r.Timestamp(ev),
			Content:   Content(ev.Body),
			MessageID: ev.MessageID,
		})
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", ev.Kind, err)
	}

	return template.HTML(buf.String()), nil
}

// Timestamp formats the relay's timestamp, falling back to the receive time
// when it is missing or unparseable.
func (r *Renderer) Timestamp(ev model.DisplayableEvent) string {
	t := ev.ReceivedAt
	if ev.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err == nil {
			t = parsed
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.In(r.loc).Format(TimestampLayout)
}

// Label returns the header label for a message type ("queue_message" → "Queue Message").
func Label(t model.MessageType) string {
	// Casers are stateful, so one is built per call.
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "_", " "))
}

// Content returns body indented with two spaces when it is valid JSON and
// unchanged otherwise.
func Content(body string) string {
	if body == "" {
		return NoContent
	}
	if !json.Valid([]byte(body)) {
		return body
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(body)), "", "  "); err != nil {
		return body
	}
	return buf.String()
}

func cssClass(t model.MessageType) string {
	if t == model.TypeQueueMessage {
		return "queue-message"
	}
	return "event"
}
