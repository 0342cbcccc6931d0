package model

// Quality tiers. The provider-specific quality strings are derived from these
// at the proxy boundary only.
type QualityTier string

const (
	QualityStandard QualityTier = "standard"
	QualityHigh     QualityTier = "high"
)

// OrDefault returns standard for an empty tier.
func (q QualityTier) OrDefault() QualityTier {
	if q == "" {
		return QualityStandard
	}
	return q
}

// Style identifiers
type StyleID string

const (
	StyleCartoonBlocks StyleID = "cartoonblocks"
	StyleCyberpunk     StyleID = "cyberpunk"
	StyleComic         StyleID = "comic"
	StyleWatercolor    StyleID = "watercolor"
	StyleRealistic     StyleID = "realistic"
	StyleBlackAndWhite StyleID = "black-and-white"
	StyleBotanical     StyleID = "botanical"
	StyleCartoonAvatar StyleID = "cartoon-avatar"
	StyleChildrensBook StyleID = "childrens-book"
	StyleGrunge        StyleID = "grunge"
	StyleVintageComic  StyleID = "vintage-comic"
)

// DefaultStyle is used when a request names an unknown style.
const DefaultStyle = StyleRealistic

// Rejection reasons reported when a prompt fails validation
type RejectionReason string

const (
	RejectEmptyPrompt       RejectionReason = "EMPTY_PROMPT"
	RejectPromptTooLong     RejectionReason = "PROMPT_TOO_LONG"
	RejectDisallowedContent RejectionReason = "DISALLOWED_CONTENT"
)

// Analysis request types, as understood by the analysis proxy
type AnalysisType string

const (
	AnalysisSingle  AnalysisType = "single"
	AnalysisCompare AnalysisType = "compare"
	AnalysisSuggest AnalysisType = "suggest"
)

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// IsTerminal reports whether no further transitions are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCanceled
}
