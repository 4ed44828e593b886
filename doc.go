// Package tubetap implements a companion agent for a video watch page: it
// injects a pair of download controls into the page, picks the best available
// media formats from the page's stream data, and coordinates asynchronous
// download jobs against a local helper process, polling job status until
// completion.
//
// The host page is modeled as an HTML document read through a pull interface
// (see internal/page); the helper process is reached through the message
// contract in internal/bridge. All coordination state lives in
// internal/session.
package tubetap
