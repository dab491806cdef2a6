package generate

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/gongwen/pkg/transport"
)

// ErrCanceled is returned in an Outcome when the run's context ended before
// the stream finished.
var ErrCanceled = errors.New("generation canceled")

// CanceledDetail is shown in place of the reply when a run is canceled while
// the view is still open.
const CanceledDetail = "已取消生成"

// BackendError is the failure signaled by an error event in the stream.
type BackendError struct {
	Detail string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend reported failure: %s", e.Detail)
}

// failureDetail returns the text shown to the user for a transport failure.
func failureDetail(err error) string {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) && statusErr.Detail != "" {
		return statusErr.Detail
	}
	return err.Error()
}
