package tagesschau

import "slices"

// SortByDate stably sorts items by publish time, oldest first. Items with
// equal timestamps keep their relative order.
func SortByDate(items []Content) {
	slices.SortStableFunc(items, func(a, b Content) int {
		return a.Date().Compare(b.Date())
	})
}

// TextOnly returns the text articles of items in their original order.
func TextOnly(items []Content) []TextArticle {
	out := make([]TextArticle, 0, len(items))
	for _, c := range items {
		if !c.IsText() {
			continue
		}
		art, err := c.Text()
		if err != nil {
			panic(err)
		}
		out = append(out, art)
	}
	return out
}

// VideoOnly returns the videos of items in their original order.
func VideoOnly(items []Content) []Video {
	out := make([]Video, 0, len(items))
	for _, c := range items {
		if !c.IsVideo() {
			continue
		}
		v, err := c.Video()
		if err != nil {
			panic(err)
		}
		out = append(out, v)
	}
	return out
}
