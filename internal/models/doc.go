// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

/*
Package models defines the data structures shared by the storage layer, the
dataset importer and the HTTP API.

Key Components:

  - Item: a catalog entry with its external id, title and genres
  - Dataset: a complete users, items and ratings set ready to be loaded
  - RecommendationSummary and Counts: read-side aggregates
  - APIResponse: the envelope of every HTTP response

The recommendation row itself is recommend.Row; this package only adds the
shapes that exist outside the algorithm.
*/
package models
