package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/questlog/questlog-be/internal/importer/domain"
)

// All markup-coupled extraction lives here so a Backloggd layout change
// breaks exactly one file, testable against saved fixture documents.

const (
	entrySelector      = "div.game-cover[data-game-id]"
	pageSelector       = "span.page"
	profileMarkerID    = "#profile-header"
	sourceRatingFactor = 10
)

// extractEntries parses every game entry out of one shelf page. Entries
// missing an id or a link are malformed source markup and skipped silently.
func extractEntries(doc *goquery.Document) []domain.StagedGameEntry {
	var entries []domain.StagedGameEntry

	doc.Find(entrySelector).Each(func(_ int, sel *goquery.Selection) {
		id, err := strconv.ParseInt(sel.AttrOr("data-game-id", ""), 10, 64)
		if err != nil {
			return
		}

		slug := slugFromPath(sel.Find("a").AttrOr("href", ""))
		if slug == "" {
			return
		}

		img := sel.Find("img.card-img")
		cover := img.AttrOr("src", "")
		if lazy := img.AttrOr("data-src", ""); lazy != "" {
			cover = lazy
		}

		entries = append(entries, domain.StagedGameEntry{
			ExternalGameID: id,
			Slug:           slug,
			Title:          strings.TrimSpace(img.AttrOr("alt", "")),
			Cover:          cover,
			Rating:         parseRating(sel.AttrOr("data-rating", "")),
		})
	})

	return entries
}

// extractPageCount reads the highest page number out of the pagination
// markers. A page with no markers is a single-page shelf; if the site ever
// drops the markers while more pages exist this silently truncates, which
// matches the source site contract as observed.
func extractPageCount(doc *goquery.Document) int {
	pages := 1
	doc.Find(pageSelector).Each(func(_ int, sel *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
		if err != nil {
			return
		}
		if n > pages {
			pages = n
		}
	})
	return pages
}

// hasProfileMarker reports whether the structural marker proving a real
// profile page is present in the document.
func hasProfileMarker(doc *goquery.Document) bool {
	return doc.Find(profileMarkerID).Length() > 0
}

// parseRating rescales the site's 0-10 rating attribute onto a 0-100 scale.
// An absent or unparseable attribute means the game is unrated.
func parseRating(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	rating := n * sourceRatingFactor
	return &rating
}

// slugFromPath pulls the game slug out of an entry link like /games/elden-ring/.
func slugFromPath(href string) string {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	if len(parts) < 2 || parts[0] != "games" {
		return ""
	}
	return parts[1]
}
