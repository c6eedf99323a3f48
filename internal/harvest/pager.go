// Package harvest drives the pagination walk over a listing site and the
// optional per-item detail enrichment. One harvest run is sequential and
// single-use; parallelism across sites is the caller's concern.
package harvest

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var pageParamRe = regexp.MustCompile(`([?&]page=)\d+`)

// PageURL builds the URL for page n from the start URL. A URL that already
// carries a page=N query parameter has the number substituted, leaving every
// other parameter untouched; otherwise a page parameter is appended.
func PageURL(startURL string, n int) string {
	if pageParamRe.MatchString(startURL) {
		return pageParamRe.ReplaceAllString(startURL, "${1}"+strconv.Itoa(n))
	}
	sep := "?"
	if strings.Contains(startURL, "?") {
		sep = "&"
	}
	return startURL + sep + "page=" + strconv.Itoa(n)
}

// ValidateStartURL rejects malformed start URLs before any fetch happens.
// This is the only error class a harvest run surfaces to the caller.
func ValidateStartURL(startURL string) error {
	u, err := url.Parse(startURL)
	if err != nil {
		return eris.Wrapf(err, "harvest: invalid start url %q", startURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Errorf("harvest: start url %q must be http or https", startURL)
	}
	if u.Host == "" {
		return eris.Errorf("harvest: start url %q has no host", startURL)
	}
	return nil
}
