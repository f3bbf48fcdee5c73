// Package crawl runs a download session over a list of candidate URIs.
//
// A Session moves through Init, LoadDict or BootstrapDict, ProcessGroups and
// finally Done or Failed. Article groups are processed by a bounded pool of
// workers; translations within a group are processed in order. The tag
// dictionary is the only state shared between workers and is owned by a
// tags.Reconciler.
//
// A 403 from the site stops the session: no new fetches are issued, fetches
// already in flight finish, and the dictionary is written before Run
// returns.
package crawl
