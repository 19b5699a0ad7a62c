// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package visitor

import (
	"net/url"
	"strings"

	"github.com/tomtom215/pagesight/internal/models"
)

// searchDomains are substring matches identifying search engine referrers.
var searchDomains = []string{
	"google.",
	"bing.com",
	"duckduckgo.com",
	"search.yahoo.",
	"yandex.",
	"baidu.com",
	"ecosia.org",
	"qwant.com",
	"startpage.com",
	"search.brave.com",
}

// socialDomains are substring matches identifying social network referrers.
var socialDomains = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"t.co",
	"x.com",
	"linkedin.com",
	"reddit.com",
	"pinterest.",
	"tiktok.com",
	"youtube.com",
	"news.ycombinator.com",
	"mastodon.",
	"bsky.app",
	"threads.net",
}

// ClassifyReferrer extracts the referrer's domain (with any leading "www."
// label stripped) and classifies it into one of the referrer categories.
//
// An empty referrer is Direct. A malformed referrer URL also classifies as
// Direct rather than an error: the tracker occasionally sends garbage and
// a broken referrer must not reject an otherwise valid event.
func ClassifyReferrer(referrer string) (category, domain string) {
	if referrer == "" {
		return models.ReferrerDirect, ""
	}

	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return models.ReferrerDirect, ""
	}

	domain = strings.ToLower(u.Hostname())
	domain = strings.TrimPrefix(domain, "www.")

	for _, d := range searchDomains {
		if strings.Contains(domain, d) {
			return models.ReferrerSearch, domain
		}
	}
	for _, d := range socialDomains {
		if strings.Contains(domain, d) {
			return models.ReferrerSocial, domain
		}
	}

	return models.ReferrerExternal, domain
}
