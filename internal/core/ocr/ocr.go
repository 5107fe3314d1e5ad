// Package ocr defines the frozen upstream contract produced by the
// extraction/OCR collaborator. Fields are never renamed, retyped, or
// removed; new fields are appended only.
package ocr

// Box is an axis-aligned bounding box in image pixel coordinates
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Word is a single recognized token with its position and OCR confidence
type Word struct {
	Text       string  `json:"text"`
	Box        Box     `json:"bounding_box"`
	Confidence float64 `json:"confidence"`
}

// Retry carries optional information about OCR retry attempts upstream
type Retry struct {
	Attempts int    `json:"attempts"`
	Reason   string `json:"reason,omitempty"`
}

// Meta describes the source image and upstream processing
type Meta struct {
	SourceFile           string   `json:"source_file"`
	ImageWidth           int      `json:"image_width"`
	ImageHeight          int      `json:"image_height"`
	ProcessedAt          string   `json:"processed_at"`
	PreprocessingApplied []string `json:"preprocessing_applied"`
	Retry                *Retry   `json:"retry_info,omitempty"`
}

// Result is the complete upstream payload for one receipt
type Result struct {
	FullText string `json:"full_text"`
	Words    []Word `json:"words"`
	Meta     Meta   `json:"metadata"`
}

// CenterY returns the vertical center of the word's box
func (w Word) CenterY() float64 { return w.Box.Y + w.Box.Height/2 }
