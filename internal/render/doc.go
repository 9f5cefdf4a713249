// Package render turns displayable events into the HTML fragment shown in
// the overlay container.
//
// All untrusted text goes through html/template escaping. Text bodies that
// parse as JSON are re-indented; anything else is shown verbatim.
package render
