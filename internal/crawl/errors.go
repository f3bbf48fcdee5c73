package crawl

import "errors"

// ErrAborted is returned by Session.Run when the site answered 403.
// The returned error also matches fetch.ErrForbidden.
var ErrAborted = errors.New("crawl aborted")
