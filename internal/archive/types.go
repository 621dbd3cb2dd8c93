package archive

import "time"

// Artifact describes a persisted report file to mirror off-site.
type Artifact struct {
	// Path is the local file path.
	Path string
	// Mobile is hashed before it leaves the host.
	Mobile         string
	Backend        string
	DeliveryStatus string
	CreatedAt      time.Time
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	File           string `json:"file"`
	S3Key          string `json:"s3_key"`
	ContentType    string `json:"content_type"`
	Bytes          int    `json:"bytes"`
	MobileHash     string `json:"mobile_hash,omitempty"`
	Backend        string `json:"backend,omitempty"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
	ArchivedAt     string `json:"archived_at"`
}
