package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeWebm        = "audio/webm"
	MimeOctetStream = "application/octet-stream"
)

var AllowedAudioContentTypes = []string{"audio/webm", "audio/ogg", "audio/mp4", "audio/mpeg", "audio/wav"}

const (
	APIPrefix   = "/api/v1"
	WebhookPath = APIPrefix + "/webhooks/razorpay"
)
