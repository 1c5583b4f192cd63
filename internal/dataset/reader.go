// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/reco/internal/models"
	"github.com/tomtom215/reco/internal/recommend"
)

// Required columns of the two MovieLens files. Other columns, such as the
// rating timestamp, are ignored.
var (
	MovieColumns  = []string{"movieId", "title", "genres"}
	RatingColumns = []string{"userId", "movieId", "rating"}
)

// noGenres is the MovieLens placeholder for an item without genres.
const noGenres = "(no genres listed)"

// columnIndex maps each required column to its position in header.
func columnIndex(file string, header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s must contain columns %v, missing %v (got %v)", file, required, missing, header)
	}
	return idx, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	return cr
}

// ReadMovies parses movies.csv. Items receive internal ids 1..n in file
// order and keep the movieId as ExternalID. The returned map translates
// movieId to internal id.
func ReadMovies(r io.Reader) ([]models.Item, map[int64]int64, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("movies.csv: read header: %w", err)
	}
	col, err := columnIndex("movies.csv", header, MovieColumns)
	if err != nil {
		return nil, nil, err
	}

	items := make([]models.Item, 0)
	byExternal := make(map[int64]int64)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("movies.csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		ext, err := strconv.ParseInt(strings.TrimSpace(rec[col["movieId"]]), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("movies.csv line %d: invalid movieId %q", line, rec[col["movieId"]])
		}
		if _, dup := byExternal[ext]; dup {
			return nil, nil, fmt.Errorf("movies.csv line %d: duplicate movieId %d", line, ext)
		}

		id := int64(len(items) + 1)
		byExternal[ext] = id
		items = append(items, models.Item{
			ID:         id,
			ExternalID: ext,
			Title:      rec[col["title"]],
			Genres:     splitGenres(rec[col["genres"]]),
		})
	}
	return items, byExternal, nil
}

func splitGenres(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == noGenres {
		return []string{}
	}
	return strings.Split(s, "|")
}

// ReadRatings parses ratings.csv and translates movieIds through items.
// A rating of an unknown movie, a duplicate (user, movie) pair or a value
// that is not a finite number fails with the offending line. Users are the
// distinct userIds in ascending order.
func ReadRatings(r io.Reader, items map[int64]int64) ([]recommend.Rating, []int64, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("ratings.csv: read header: %w", err)
	}
	col, err := columnIndex("ratings.csv", header, RatingColumns)
	if err != nil {
		return nil, nil, err
	}

	type pair struct{ user, item int64 }
	seen := make(map[pair]struct{})
	users := make(map[int64]struct{})
	ratings := make([]recommend.Rating, 0)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("ratings.csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		user, err := strconv.ParseInt(strings.TrimSpace(rec[col["userId"]]), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("ratings.csv line %d: invalid userId %q", line, rec[col["userId"]])
		}
		movie, err := strconv.ParseInt(strings.TrimSpace(rec[col["movieId"]]), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("ratings.csv line %d: invalid movieId %q", line, rec[col["movieId"]])
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[col["rating"]]), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, nil, fmt.Errorf("ratings.csv line %d: invalid rating %q", line, rec[col["rating"]])
		}

		item, ok := items[movie]
		if !ok {
			return nil, nil, fmt.Errorf("ratings.csv line %d: unknown movieId %d", line, movie)
		}
		key := pair{user, item}
		if _, dup := seen[key]; dup {
			return nil, nil, fmt.Errorf("ratings.csv line %d: duplicate rating of movie %d by user %d", line, movie, user)
		}
		seen[key] = struct{}{}
		users[user] = struct{}{}

		ratings = append(ratings, recommend.Rating{UserID: user, ItemID: item, Value: value})
	}

	ids := make([]int64, 0, len(users))
	for u := range users {
		ids = append(ids, u)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ratings, ids, nil
}
