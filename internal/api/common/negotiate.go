package common

import (
	"mime"
	"strings"
)

// WantsStructuredData reports whether a client sending the given Accept header
// should receive JSON rather than an HTML page. JSON wins when it is listed
// explicitly; otherwise HTML is served only to clients that ask for it.
func WantsStructuredData(accept string) bool {
	wantsHTML := false
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch {
		case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
			return true
		case mediaType == "text/html":
			wantsHTML = true
		}
	}
	return !wantsHTML
}
