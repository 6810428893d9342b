// Package chatid derives stable chat identities from chat page URLs.
package chatid

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// HashPrefix marks ids derived from a URL hash rather than a URL pattern.
const HashPrefix = "url_"

var patterns = []struct {
	re  *regexp.Regexp
	typ models.ChatType
}{
	{regexp.MustCompile(`^/chat/([A-Za-z0-9_-]+)/?$`), models.ChatTypeChat},
	{regexp.MustCompile(`^/project/([A-Za-z0-9_-]+)/?$`), models.ChatTypeProject},
}

// Resolve returns the id and type of the chat at rawURL. URLs that match no
// known pattern get a hash-based id and an unknown type. The same URL always
// yields the same id.
func Resolve(rawURL string) (string, models.ChatType) {
	rawURL = strings.TrimSpace(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		for _, p := range patterns {
			if m := p.re.FindStringSubmatch(u.Path); m != nil {
				return m[1], p.typ
			}
		}
	}
	return Hash(rawURL), models.ChatTypeUnknown
}

// Hash computes the fallback id for a URL.
func Hash(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%s%x", HashPrefix, sum[:8])
}

// Identify fills in a missing chat id and type on in from its URL. Values
// already provided by the collector are kept.
func Identify(in *models.RoundInput) {
	if in.ChatID != "" && in.ChatType != "" {
		return
	}
	id, typ := Resolve(in.ChatURL)
	if in.ChatID == "" {
		in.ChatID = id
	}
	if in.ChatType == "" {
		if in.ChatID == id {
			in.ChatType = typ
		} else {
			in.ChatType = models.ChatTypeUnknown
		}
	}
}
