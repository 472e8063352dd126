package stream

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"anomalydash/internal/media"
	"anomalydash/internal/model"
)

type wireFrame struct {
	Frame        string   `json:"frame"`
	IsAnomaly    bool     `json:"is_anomaly"`
	AnomalyScore *float64 `json:"anomaly_score"`
}

// DecodeFrame turns one inbound JSON payload into a displayable frame. The frame
// field is base64 image bytes, or already a data URI.
func DecodeFrame(payload []byte, receivedAt time.Time) (model.Frame, error) {
	var wire wireFrame
	if err := json.Unmarshal(payload, &wire); err != nil {
		return model.Frame{}, &FrameDecodeError{Reason: "payload is not JSON", Cause: err}
	}
	if wire.Frame == "" {
		return model.Frame{}, &FrameDecodeError{Reason: "missing frame field"}
	}

	var imageData string
	if _, data, err := media.ParseDataURI(wire.Frame); err == nil {
		mimeType, err := media.SniffImage(data)
		if err != nil {
			return model.Frame{}, &FrameDecodeError{Reason: "frame data", Cause: err}
		}
		imageData = media.BuildDataURI(mimeType, data)
	} else {
		data, err := base64.StdEncoding.DecodeString(wire.Frame)
		if err != nil {
			return model.Frame{}, &FrameDecodeError{Reason: "frame is not base64", Cause: err}
		}
		mimeType, err := media.SniffImage(data)
		if err != nil {
			return model.Frame{}, &FrameDecodeError{Reason: "frame data", Cause: err}
		}
		imageData = "data:" + mimeType + ";base64," + wire.Frame
	}

	frame := model.Frame{
		ImageData:  imageData,
		IsAnomaly:  wire.IsAnomaly,
		ReceivedAt: receivedAt,
	}
	if wire.IsAnomaly && wire.AnomalyScore != nil {
		score := *wire.AnomalyScore
		frame.AnomalyScore = &score
	}
	return frame, nil
}
