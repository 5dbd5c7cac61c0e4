package content

import "strings"

// AnchorMarker is the literal container every target document keeps at its insertion point
const AnchorMarker = `<div class="status-line">`

// FragmentPadding separates an inserted fragment from the anchor
const FragmentPadding = "\n\n"

// Insert places fragment immediately before the first AnchorMarker in document.
func Insert(document, fragment string) (string, bool) {
	return InsertAt(document, AnchorMarker, fragment)
}

// InsertAt places fragment, followed by FragmentPadding, immediately before the first
// occurrence of anchor. When the anchor is missing the document is returned untouched
// and false is reported.
//
// Every insertion lands directly above the anchor, so repeated calls leave the most
// recent fragment closest to it and older fragments further up the page.
func InsertAt(document, anchor, fragment string) (string, bool) {
	if anchor == "" {
		return document, false
	}
	idx := strings.Index(document, anchor)
	if idx < 0 {
		return document, false
	}

	var b strings.Builder
	b.Grow(len(document) + len(fragment) + len(FragmentPadding))
	b.WriteString(document[:idx])
	b.WriteString(fragment)
	b.WriteString(FragmentPadding)
	b.WriteString(document[idx:])
	return b.String(), true
}
