// Package printing provides the data model and upstream client for the
// cloud print API. The gateway never stores any of these entities; every
// value is a per-request projection of upstream data.
package printing

// JobStatus describes the upstream-reported state of a printer or job.
type JobStatus struct {
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
}

// Printer is a read-only projection of an upstream printer.
type Printer struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Manufacturer string     `json:"manufacturer"`
	Model        string     `json:"model"`
	IsShared     bool       `json:"isShared"`
	Status       *JobStatus `json:"status,omitempty"`
}

// CreatedBy identifies the user a print job was created for.
type CreatedBy struct {
	UserPrincipalName string `json:"userPrincipalName"`
}

// PrintJob is a read-only projection of an upstream print job.
//
// Lifecycle as observed from here: created -> (uploading) ->
// queued/processing -> completed | failed/cancelled. The gateway only
// observes these states; transitions happen upstream.
type PrintJob struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Status          JobStatus `json:"status"`
	CreatedDateTime string    `json:"createdDateTime,omitempty"`
	CreatedBy       CreatedBy `json:"createdBy,omitempty"`
}

// PageRange selects an inclusive page interval to print.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Print quality values accepted by the upstream API.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// Orientation values accepted by the upstream API.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Color mode values accepted by the upstream API.
const (
	ColorModeBlackAndWhite = "blackAndWhite"
	ColorModeGrayscale     = "grayscale"
	ColorModeColor         = "color"
)

// Duplex values accepted by the upstream API.
const (
	DuplexSimplex   = "simplex"
	DuplexDuplex    = "duplex"
	DuplexShortEdge = "duplexShortEdge"
)

// JobConfiguration carries the optional print settings for a job. All fields
// are optional; the zero value serializes to an empty JSON object.
type JobConfiguration struct {
	PageRanges      []PageRange `json:"pageRanges,omitempty"`
	Quality         string      `json:"quality,omitempty"`
	FeedOrientation string      `json:"feedOrientation,omitempty"`
	Orientation     string      `json:"orientation,omitempty"`
	Copies          *int        `json:"copies,omitempty"`
	DPI             *int        `json:"dpi,omitempty"`
	FitPdfToPage    *bool       `json:"fitPdfToPage,omitempty"`
	ColorMode       string      `json:"colorMode,omitempty"`
	Duplex          string      `json:"duplex,omitempty"`
}

// PrintJobRequest is the caller-supplied description of a job to create.
// DisplayName and PrinterID are required and must be validated by the
// boundary layer before the upstream client is invoked.
type PrintJobRequest struct {
	DisplayName   string            `json:"displayName"`
	PrinterID     string            `json:"printerId"`
	Configuration *JobConfiguration `json:"configuration,omitempty"`
}

// CreateJobResponse is the upstream response to job creation. UploadURL is a
// short-lived pre-signed destination for the document payload; once consumed
// it must never be exposed outside this tier.
type CreateJobResponse struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	UploadURL string    `json:"uploadUrl,omitempty"`
}

// collection is the envelope the upstream API wraps lists in.
type collection[T any] struct {
	Value []T `json:"value"`
}
