// Package langfilter compiles a language list into a single filename predicate.
//
// Languages double as file extensions: "scala" matches any file ending in
// ".scala". The match is case-sensitive and looks only at the basename suffix;
// path components never participate. This is the one place the language list
// is interpreted, so the extractor and the indexer command line stay in
// agreement about what counts as a source file.
package langfilter

import (
	"path"
	"strings"
)

// Build compiles languages into a predicate over archive entry names.
//
// An empty language list yields a predicate that matches nothing: with no
// languages configured there is nothing to extract, mirroring the command
// composer dropping its --languages= argument in the same case.
func Build(languages []string) func(name string) bool {
	if len(languages) == 0 {
		return func(string) bool { return false }
	}

	suffixes := make([]string, len(languages))
	for i, lang := range languages {
		suffixes[i] = "." + lang
	}

	return func(name string) bool {
		base := path.Base(name) // archive entries use forward slashes
		for _, suffix := range suffixes {
			if strings.HasSuffix(base, suffix) {
				return true
			}
		}
		return false
	}
}
