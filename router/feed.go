package router

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/envelope-app/segora-backend/common"
	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
	"github.com/envelope-app/segora-backend/realtime"
)

// Feed returns one page of the home feed. A store failure is logged and
// answered with an empty page.
func Feed() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		q := r.URL.Query()
		filter, ok := market.ParseFeedFilter(q.Get("filter"))
		if !ok {
			return invalidData(errors.New("filter must be one of for_you, trending, my_campus, newest"))
		}
		page := 0
		if s := q.Get("page"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return invalidData(errors.New("page must be a non-negative number"))
			}
			page = n
		}

		posts, err := rc.store.ListFeed(r.Context(), db.FeedQuery{
			Filter: filter,
			Campus: rc.campus(),
			Page:   page,
		})
		if err != nil {
			if e := writeJSON(w, http.StatusOK, &FeedResponse{Posts: []PostCard{}, Page: page}); e != nil {
				return e
			}
			return &HTTPError{IError: err, Level: 2}
		}
		return writeJSON(w, http.StatusOK, &FeedResponse{
			Posts:   cards(posts),
			Page:    page,
			HasMore: len(posts) == market.FeedPageSize,
		})
	}
}

// Explore searches posts by text or hashtag, optionally within a category.
func Explore() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		q := r.URL.Query()
		category := strings.TrimSpace(q.Get("category"))
		if category != "" {
			if _, ok := common.LookupCategory(category); !ok {
				return invalidData(errors.New("unknown category"))
			}
		}

		posts, err := rc.store.Search(r.Context(), rc.campus(), db.SearchQuery{
			Text:     strings.TrimPrefix(strings.TrimSpace(q.Get("q")), "#"),
			Category: category,
		})
		if err != nil {
			return storeError(err, "Post")
		}
		return writeJSON(w, http.StatusOK, &PostsResponse{Posts: cards(posts)})
	}
}

func Campuses() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		return writeJSON(w, http.StatusOK, common.Campuses)
	}
}

func Categories() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		return writeJSON(w, http.StatusOK, common.Categories)
	}
}

// FeedStream pushes new posts the caller may see, optionally only those from
// one campus.
func FeedStream() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		campus := r.URL.Query().Get("campus")
		filter := realtime.CampusFilter(campus, rc.campus())
		if err := rc.hub.Serve(w, r, realtime.PostsTopic, filter); err != nil {
			return &HTTPError{IError: err, Level: 2}
		}
		return nil
	}
}
