// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

/*
Package recommend implements the hybrid user-based collaborative filtering
and popularity recommender that Reco recomputes in batch.

# Pipeline

One batch builds a Model from the full rating set:

 1. Rating index: user -> item -> rating and item -> user -> rating.
 2. Popularity: IMDB-style shrinkage of each item's mean rating toward the
    global mean, min-max normalized to [0, 1].
 3. Bias model: mu + b_u + b_i with one-pass regularized averages.
 4. Profile maturity threshold: median ratings per user.

Then, per user:

 5. Candidate generation: the top-P popular items plus items liked by the
    user's nearest neighbors, restricted to the catalog, minus seen items.
 6. Hybrid ranking: a bias-aware neighborhood prediction, normalized and
    blended with popularity through an adaptive weight
    alpha = min(n / (n + threshold), alpha_max).

# Concurrency

A Model is read-only once built and may be shared by any number of
goroutines. Similarity memoization is not: every goroutine owns its own
Similarity (and therefore its own cache). Batch shards users across a
worker pool this way and reassembles the rows in user order.

# Determinism

Every ranking in the package breaks ties by ascending id, so a given rating
set always produces the same recommendation rows.
*/
package recommend
