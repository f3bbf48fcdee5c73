// Package model defines the data structures shared by the crawler packages.
//
// This package contains the following main types:
//   - Article: one language edition of one article, as persisted on disk
//   - Tag: a single tag observation (short id, display name, link)
//   - CandidateURI: one row of the candidate table produced from the sitemaps
//   - FullArticle: every stored translation of one article group
//
// The models are serializable to JSON in the same shape as the files
// written by the download phase, so they can be read back by the export
// and resume paths.
package model
