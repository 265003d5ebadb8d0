package server

// Wire messages exchanged with editor and preview clients. Every message
// carries a "type" discriminator; unknown types are ignored on both sides so
// the two ends can evolve independently.

// inbound is the union of all client-to-server messages.
type inbound struct {
	Type string `json:"type"`

	// textChanged
	Text string `json:"text,omitempty"`

	// scrollTo. Mode distinguishes outline jumps from scroll-to-line; both
	// funnel into the same machine entry point.
	MarkID       string `json:"markId,omitempty"`
	OriginalLine int    `json:"originalLine,omitempty"`
	Mode         string `json:"mode,omitempty"`

	// renderDiagram
	Key    string `json:"key,omitempty"`
	Source string `json:"source,omitempty"`

	// visibility
	Samples []visibilitySample `json:"samples,omitempty"`
}

type visibilitySample struct {
	MarkID string  `json:"markId"`
	Ratio  float64 `json:"ratio"`
}

// previewMsg replaces the preview body after a re-transpile. The line maps
// let the editor host translate between as-typed and merged line numbers.
type previewMsg struct {
	Type         string `json:"type"`
	HTML         string `json:"html"`
	Generation   uint64 `json:"generation"`
	OrigToMerged []int  `json:"origToMerged"`
	MergedToOrig []int  `json:"mergedToOrig"`
}

// activePositionMsg tells the editor which mark the reader is looking at.
type activePositionMsg struct {
	Type         string `json:"type"`
	MarkID       string `json:"markId"`
	OriginalLine int    `json:"originalLine"`
}

// scrollMsg tells the preview to bring a mark into view.
type scrollMsg struct {
	Type   string `json:"type"`
	MarkID string `json:"markId"`
}

// diagramResultMsg answers one renderDiagram request.
type diagramResultMsg struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	OK    bool   `json:"ok"`
	SVG   string `json:"svg,omitempty"`
	Error string `json:"error,omitempty"`
}
