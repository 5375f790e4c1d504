package harvest

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/samvad-hq/tagesschau-harvester/pkg/publishers"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

// ItemID returns the stable identity used to deduplicate c across passes:
// the sophora id, else the external id, else a hash of its URL. It is empty
// when c carries none of them.
func ItemID(c tagesschau.Content) string {
	item := c.Item()
	if item.SophoraID != "" {
		return item.SophoraID
	}
	if item.ExternalID != "" {
		return item.ExternalID
	}
	if u := publishers.ContentURL(c); u != "" {
		return hashURL(u)
	}
	return ""
}

func hashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}
