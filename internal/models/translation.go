package models

type TranslateRequest struct {
	ToLanguage string `json:"toLanguage" validate:"required"`
	Sentence   string `json:"sentence" validate:"required"`
}

// ExplainRequest is shared by the explain-only and explain-and-save routes.
type ExplainRequest struct {
	OriginalSentence   string `json:"originalSentence" validate:"required"`
	TranslatedSentence string `json:"translatedSentence" validate:"required"`
	OriginalLang       string `json:"originalLang" validate:"required"`
	TargetLang         string `json:"targetLang" validate:"required"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type OCRWord struct {
	Text            string  `json:"text" validate:"required"`
	BoundingPolygon []Point `json:"boundingPolygon"`
	Confidence      float64 `json:"confidence"`
}

type OCRLine struct {
	Text            string    `json:"text" validate:"required"`
	BoundingPolygon []Point   `json:"boundingPolygon"`
	Words           []OCRWord `json:"words" validate:"dive"`
}

// OCRLayout is structured OCR output sent back by a client for
// reading-order reconstruction.
type OCRLayout struct {
	Lines []OCRLine `json:"lines" validate:"required,min=1,dive"`
}

type PostprocessRequest struct {
	OCRData OCRLayout `json:"ocrData"`
}
