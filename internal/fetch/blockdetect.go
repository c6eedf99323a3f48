package fetch

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of bot-defense detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockForbidden  BlockType = "forbidden"
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
)

// DetectBlock checks a response for signs of active bot defense. A 403 is
// always a block; 503 with Cloudflare headers and challenge/captcha page
// markers are blocks regardless of status.
func DetectBlock(statusCode int, header http.Header, body []byte) (bool, BlockType) {
	if statusCode == http.StatusForbidden {
		return true, BlockForbidden
	}

	if statusCode == http.StatusServiceUnavailable && header != nil {
		if header.Get("cf-ray") != "" || header.Get("cf-cache-status") != "" ||
			strings.EqualFold(header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	// Challenge page markers only count on small bodies; a real listing
	// page can legitimately mention these words.
	if len(body) < 4096 {
		if strings.Contains(lower, "checking your browser") ||
			strings.Contains(lower, "cf-browser-verification") ||
			strings.Contains(lower, "just a moment") {
			return true, BlockCloudflare
		}
		if strings.Contains(lower, "recaptcha") || strings.Contains(lower, "hcaptcha") {
			return true, BlockCaptcha
		}
	}

	return false, BlockNone
}
