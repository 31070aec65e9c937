package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"paperscan/internal/logging"
	"paperscan/internal/services"
	"paperscan/internal/services/paperless"
)

// upload hands the scan to Paperless and logs the result. Failures keep the
// file on disk and never touch the scan metrics.
func (r *Runner) upload(ctx context.Context, logger *slog.Logger, path string) {
	if r.uploader == nil {
		logging.ErrorWithContext(logger, "upload skipped; paperless client not configured", "upload_unconfigured",
			logging.String("file", path),
			logging.String(logging.FieldErrorHint, services.Hint(services.ErrConfiguration)),
		)
		return
	}

	logger.Info("uploading to paperless",
		logging.String(logging.FieldEventType, "upload_started"),
		logging.String("file", path),
	)
	receipt, err := r.uploader.Upload(ctx, path)
	if err != nil {
		var statusErr *paperless.StatusError
		if errors.As(err, &statusErr) {
			logging.ErrorWithContext(logger, "error uploading to paperless", "upload_rejected",
				logging.String("file", path),
				logging.Int("status_code", statusErr.StatusCode),
				logging.String("response", statusErr.Body),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
			)
			return
		}
		logging.ErrorWithContext(logger, "failed to upload to paperless", "upload_failed",
			logging.String("file", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return
	}

	logger.Info("uploaded to paperless",
		logging.String(logging.FieldEventType, "upload_completed"),
		logging.String("file", path),
		logging.String("task_id", receipt.TaskID),
		logging.Int64("size_bytes", receipt.SizeBytes),
		logging.Duration("upload_duration", receipt.Duration.Round(time.Millisecond)),
	)
	if receipt.RemoveErr != nil {
		logging.WarnWithContext(logger, "uploaded scan could not be removed", "scan_cleanup_failed",
			logging.String("file", path),
			logging.Error(receipt.RemoveErr),
			logging.String(logging.FieldErrorHint, "check permissions on the work directory"),
			logging.String(logging.FieldImpact, "document may be uploaded again if re-consumed manually"),
		)
	}
}
