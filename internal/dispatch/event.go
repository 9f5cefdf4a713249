package dispatch

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/overlay-monitor/internal/model"
)

// imageReady is the payload published when a generated image is ready.
type imageReady struct {
	Username  string `json:"username"`
	ImagePath string `json:"image_path"`
}

// BuildEvent turns a raw payload into the event broadcast to overlays.
// Payloads naming an image_path become resource_ready events with the path
// placed under imagePrefix; anything else is a queue_message carrying the
// payload verbatim.
func BuildEvent(id uuid.UUID, payload []byte, imagePrefix string, at time.Time) model.Event {
	var img imageReady
	if err := json.Unmarshal(payload, &img); err == nil && img.ImagePath != "" {
		return model.NewEvent(model.TypeResourceReady, model.ResourceReadyData{
			Username:  img.Username,
			ImagePath: joinPrefix(imagePrefix, img.ImagePath),
			MessageID: id.String(),
		}, at)
	}

	return model.NewEvent(model.TypeQueueMessage, model.QueueMessageData{
		Body:      string(payload),
		MessageID: id.String(),
	}, at)
}

func joinPrefix(prefix, path string) string {
	if prefix == "" {
		return path
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(path, "/")
}
