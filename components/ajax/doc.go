// Package ajax exposes widget actions over net/http. A POST carries the form
// build id, the name of the triggering button and the posted form values; the
// handler dispatches the action against the submission cycle's state and
// replies with the re-rendered wrapper region as JSON.
//
// An unknown or expired build id answers 410 Gone so the page can reload the
// form from scratch.
package ajax
