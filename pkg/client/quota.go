package client

import (
	"net/http"
	"strings"
)

// quotaReason is the machine-readable reason code the Data API puts in the
// error list when a key's daily quota is spent.
const quotaReason = "quotaExceeded"

// isQuotaExceeded reports whether a response signals quota exhaustion.
// Primary rule: a 403 whose error list carries the quotaExceeded reason.
// Fallback rule (kept deliberately secondary, the reason code is the
// reliable signal): any 403 whose serialized error text mentions quota.
func isQuotaExceeded(status int, env *envelope, body []byte) bool {
	if status != http.StatusForbidden {
		return false
	}

	if env != nil && env.Error != nil {
		for _, item := range env.Error.Errors {
			if item.Reason == quotaReason {
				return true
			}
		}
		if strings.Contains(strings.ToLower(env.Error.Message), "quota") {
			return true
		}
	}

	return strings.Contains(strings.ToLower(string(body)), "quota")
}
