// Package domain parses dotted domain names into label sequences and matches
// registered patterns against request hosts.
//
// A pattern label equal to "*" is a wildcard and matches exactly one label of
// any value. Patterns and hosts only match when they have the same number of
// labels:
//
//	p, _ := domain.NewPattern("*.example.com")
//	h, _ := domain.NewHostKey("shop.example.com")
//	p.Match(h) // true
//
//	h, _ = domain.NewHostKey("a.shop.example.com")
//	p.Match(h) // false, label counts differ
package domain
