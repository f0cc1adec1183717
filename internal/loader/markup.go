package loader

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrInvalidMarkup is returned for banner markup that is empty or lacks the banner anchor.
var ErrInvalidMarkup = errors.New("loader: invalid banner markup")

// validateMarkup checks that markup is non-empty and contains an element with the anchor id.
func validateMarkup(markup, anchor string) error {
	if strings.TrimSpace(markup) == "" {
		return fmt.Errorf("%w: empty response", ErrInvalidMarkup)
	}
	if !containsID(markup, anchor) {
		return fmt.Errorf("%w: no element with id %q", ErrInvalidMarkup, anchor)
	}
	return nil
}

func containsID(markup, id string) bool {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			_, more := z.TagName()
			for more {
				var key, val []byte
				key, val, more = z.TagAttr()
				if string(key) == "id" && string(val) == id {
					return true
				}
			}
		}
	}
}
