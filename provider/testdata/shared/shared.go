// Package shared holds types referenced across packages.
package shared

// Audit is embedded by model types.
type Audit struct {
	CreatedBy string `json:"createdBy"`
}
