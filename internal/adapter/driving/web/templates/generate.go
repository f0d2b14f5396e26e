// Package templates holds the page shell shared by every GUI page. The
// _templ.go files are generated from the .templ sources.
package templates

//go:generate go tool templ generate
