// Package template defines the template seam of the HTML renderer. The
// gotemplate subpackage implements it on pongo2.
package template
