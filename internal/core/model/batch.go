package model

type PairStatus string

const (
	PairComplete           PairStatus = "complete"
	PairMissingImage       PairStatus = "missing-image"
	PairMissingApplication PairStatus = "missing-application"
)

// FilePair groups one label image with the application it is checked
// against. Result and Error are mutually exclusive once verification ran.
type FilePair struct {
	ID              string              `json:"id"`
	ImageName       string              `json:"imageName,omitempty"`
	ApplicationName string              `json:"applicationName,omitempty"`
	Status          PairStatus          `json:"status"`
	Application     *ApplicationData    `json:"applicationData,omitempty"`
	Result          *VerificationResult `json:"result,omitempty"`
	Error           string              `json:"error,omitempty"`

	Image *Image `json:"-"`
}

type VerificationBatch struct {
	ID    string      `json:"batchId"`
	Pairs []*FilePair `json:"pairs"`
}
