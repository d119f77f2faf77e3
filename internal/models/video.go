package models

const (
	VideoStatusProcessing = "Processing..."

	// RegisteredAtLayout is the backend's timestamp format for status rows.
	RegisteredAtLayout = "2006-01-02 15:04:05"
)

// VideoFormat is the pre-submission check result for a YouTube video.
type VideoFormat struct {
	IsValid bool `json:"isValid"`
	Is1080p bool `json:"is1080p"`
	Is30fps bool `json:"is30fps"`
}

type VideoStatus struct {
	VideoID      string `json:"videoId"`
	RegisteredAt string `json:"registeredAt"`
	Status       string `json:"status"`
	// Pending marks rows appended locally before the backend reports them.
	Pending bool `json:"pending,omitempty"`
}

// ExtractProgress is one event of the extraction stream. Message holds the
// whole log so far, not only the newest line.
type ExtractProgress struct {
	Progress float64  `json:"progress"`
	Message  []string `json:"message"`
}

func (p *ExtractProgress) UnmarshalJSON(data []byte) error {
	type Alias ExtractProgress
	return flexUnmarshal(data, (*Alias)(p))
}

// ExtractRequest is the body of a video submission.
type ExtractRequest struct {
	VideoID     string `json:"videoId" validate:"required,min=6,max=64"`
	Language    string `json:"language" validate:"required,oneof=ja en"`
	FinalResult *int   `json:"finalResult,omitempty" validate:"omitempty,min=1"`
}
