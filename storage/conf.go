package storage

const (
	BucketDocuments  = "documents"
	BucketSignatures = "signatures"

	// Per-file upload caps in bytes, enforced bucket-side as well.
	DocumentsSizeLimit  = 10 * 1024 * 1024
	SignaturesSizeLimit = 5 * 1024 * 1024
)

type Conf struct {
	Host       string `json:"host"` // defaults to the platform host
	ServiceKey string `json:"-"`    // env only

	// SignaturesPublic makes the signatures bucket public so signature
	// images can be served by plain public URLs instead of signed ones.
	// Deployment-wide; flipping it requires re-provisioning the bucket.
	SignaturesPublic bool `json:"signatures_public"`
}
