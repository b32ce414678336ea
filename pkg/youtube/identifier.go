package youtube

import (
	"regexp"
	"strings"
)

// IdentifierKind says how a channel identifier should be resolved.
type IdentifierKind string

const (
	// KindID is a raw channel id (UC… form).
	KindID IdentifierKind = "id"

	// KindHandle is a handle to resolve via forHandle.
	KindHandle IdentifierKind = "handle"
)

var (
	channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)

	urlPatterns = []struct {
		re   *regexp.Regexp
		kind IdentifierKind
	}{
		{regexp.MustCompile(`youtube\.com/@([^/\?]+)`), KindHandle},
		{regexp.MustCompile(`youtube\.com/channel/([^/\?]+)`), KindID},
		{regexp.MustCompile(`youtube\.com/c/([^/\?]+)`), KindHandle},
		{regexp.MustCompile(`youtube\.com/user/([^/\?]+)`), KindHandle},
	}
)

// ParseChannelIdentifier normalizes the identifier forms operators paste in:
// a raw channel id, an @handle, or any of the channel URL shapes. Anything
// unrecognized is treated as a bare handle.
//
//	UC1234…                       -> (id, UC1234…)
//	@someone                      -> (handle, someone)
//	https://youtube.com/@someone  -> (handle, someone)
//	https://youtube.com/channel/UC1234… -> (id, UC1234…)
func ParseChannelIdentifier(identifier string) (IdentifierKind, string) {
	identifier = strings.TrimSpace(identifier)

	if channelIDPattern.MatchString(identifier) {
		return KindID, identifier
	}

	if strings.HasPrefix(identifier, "@") {
		return KindHandle, identifier[1:]
	}

	for _, p := range urlPatterns {
		if m := p.re.FindStringSubmatch(identifier); m != nil {
			return p.kind, m[1]
		}
	}

	return KindHandle, identifier
}
