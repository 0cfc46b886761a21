package realtime

type SSEEvent string

const (
	SSEEventDatasetIngestStarted   SSEEvent = "DatasetIngestStarted"
	SSEEventDatasetIngestProgress  SSEEvent = "DatasetIngestProgress"
	SSEEventDatasetIngestCompleted SSEEvent = "DatasetIngestCompleted"
	SSEEventDatasetIngestFailed    SSEEvent = "DatasetIngestFailed"
	SSEEventDatasetRowAdded        SSEEvent = "DatasetRowAdded"
	SSEEventDatasetRowUpdated      SSEEvent = "DatasetRowUpdated"
	SSEEventDatasetRowDeleted      SSEEvent = "DatasetRowDeleted"
)

// SSEMessage is one event on a channel. Dataset events use the dataset id as channel.
type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
