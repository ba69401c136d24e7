package ports

import "context"

// DownloadSink hands the finished artifact to the user.
type DownloadSink interface {
	Save(ctx context.Context, filename string, artifact []byte) error
}
