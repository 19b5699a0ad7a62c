// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package visitor

import "strings"

// botTokens are case-insensitive substrings that mark a user agent as
// automated traffic. The list favors generic markers ("bot", "spider")
// over an exhaustive crawler catalog; headless browsers and the common
// HTTP client libraries are matched explicitly.
var botTokens = []string{
	"bot",
	"crawler",
	"spider",
	"crawling",
	"scraper",
	"slurp",
	"archiver",
	"facebookexternalhit",
	"mediapartners-google",
	"apis-google",
	"headlesschrome",
	"phantomjs",
	"lighthouse",
	"pingdom",
	"uptimerobot",
	"curl/",
	"wget/",
	"python-requests",
	"python-urllib",
	"go-http-client",
	"okhttp",
	"java/",
	"libwww-perl",
	"httpclient",
}

// IsBot classifies a user agent as automated traffic.
//
// A missing user agent classifies as non-bot: when classification cannot
// run the filter fails open toward counting the visitor as human, so
// legitimate low-information traffic is not silently dropped from the
// unique-visitor metric.
func IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}

	ua := strings.ToLower(userAgent)
	for _, token := range botTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}
