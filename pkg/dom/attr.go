package dom

import "golang.org/x/net/html"

// Attr builds an attribute for AppendElement.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
