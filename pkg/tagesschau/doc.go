// Package tagesschau is a client for the tagesschau.de news JSON endpoint.
//
// A Query selects a ressort, a set of federal states and a timeframe. The
// Client resolves the timeframe to calendar dates, issues one GET per date
// and decodes each item as either a TextArticle or a Video.
package tagesschau
