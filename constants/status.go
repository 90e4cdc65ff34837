package constants

// Status is the outcome carried by a processing result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)
