// Package pages renders the individual GUI pages as templ components.
package pages
