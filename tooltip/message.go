package tooltip

import (
	"errors"
	"net/http"

	"github.com/unkn0wn-root/tipcache"
)

const failurePrefix = "Failed to load: "

// Message turns a fetch failure into the text of the error tooltip.
// Cancellations are never shown and yield "".
func Message(err error) string {
	if err == nil || tipcache.IsCancelled(err) {
		return ""
	}

	var ve *tipcache.ValidationError
	if errors.As(err, &ve) {
		reason := ve.Reason
		if reason == "" {
			reason = "missing"
		}
		return failurePrefix + "invalid data (" + ve.Field + " " + reason + ")"
	}

	var ne *tipcache.NetworkError
	if errors.As(err, &ne) {
		switch {
		case ne.Cause != nil:
			return failurePrefix + ne.Cause.Error()
		case ne.Status != 0:
			return failurePrefix + http.StatusText(ne.Status)
		default:
			return failurePrefix + "network error"
		}
	}

	return failurePrefix + err.Error()
}
