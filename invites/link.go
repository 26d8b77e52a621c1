package invites

import (
	"net/url"
	"strings"
)

// BuildAcceptLink returns the human facing link for an invite
func BuildAcceptLink(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/accept?code=" + url.QueryEscape(code)
}
