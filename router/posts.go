package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/envelope-app/segora-backend/common"
	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
)

// CreatePost publishes a listing on the author's campus.
func CreatePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var l market.Listing
		if e := parseJSON(r, &l); e != nil {
			return e
		}
		if err := l.Normalize(); err != nil {
			return invalidData(err)
		}

		p, err := rc.store.CreatePost(r.Context(), rc.userID, rc.campus(), &l)
		if err != nil {
			return storeError(err, "Profile")
		}
		return writeJSON(w, http.StatusCreated, p)
	}
}

// visible reports whether the caller may see p. Campus-only posts are
// hidden from other campuses.
func (rc *RouterContext) visible(p *db.Post) bool {
	if p.VisibleTo != market.VisibleCampus || p.UserID == rc.userID {
		return true
	}
	return rc.campus() != "" && rc.campus() == p.Campus
}

func card(p db.Post, now time.Time) PostCard {
	return PostCard{
		Post:       p,
		PriceLabel: market.PriceLabel(p.PriceType, p.Price),
		TimeAgo:    common.FormatTimeAgo(p.CreatedAt, now),
	}
}

func cards(posts []db.Post) []PostCard {
	now := time.Now()
	out := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		out = append(out, card(p, now))
	}
	return out
}

func GetPost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := pathID(r, "id", "Post")
		if e != nil {
			return e
		}
		p, err := rc.store.GetPost(r.Context(), id)
		if err != nil {
			return storeError(err, "Post")
		}
		if !rc.visible(p) {
			return storeError(db.ErrNotFound, "Post")
		}

		view := &PostView{PostCard: card(*p, time.Now())}
		if rc.userID != "" {
			view.Liked, view.Saved, err = rc.store.Engagement(r.Context(), rc.userID, id)
			if err != nil {
				return storeError(err, "Post")
			}
		}
		return writeJSON(w, http.StatusOK, view)
	}
}

// ownPost loads the post named in the path and checks the caller wrote it.
func ownPost(rc *RouterContext, r *http.Request) (*db.Post, *HTTPError) {
	id, e := pathID(r, "id", "Post")
	if e != nil {
		return nil, e
	}
	p, err := rc.store.GetPost(r.Context(), id)
	if err != nil {
		return nil, storeError(err, "Post")
	}
	if p.UserID != rc.userID {
		return nil, forbidden("Only the author can change this post")
	}
	return p, nil
}

// validatePostUpdate checks a partial edit of a post currently priced as
// current. A free post stays at price zero.
func validatePostUpdate(u *db.PostUpdate, current market.PriceType) error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return errors.New("title must not be empty")
		}
		u.Title = &t
	}
	if u.Images != nil && len(u.Images) == 0 {
		return errors.New("at least one image is required")
	}
	if u.Price != nil && *u.Price < 0 {
		return errors.New("price must not be negative")
	}
	priceType := current
	if u.PriceType != nil {
		if !u.PriceType.Valid() {
			return errors.New("unknown price_type")
		}
		priceType = *u.PriceType
	}
	if priceType == market.PriceFree && (u.PriceType != nil || u.Price != nil) {
		var zero int64
		u.Price = &zero
	}
	if u.Condition != nil && !u.Condition.Valid() {
		return errors.New("unknown condition")
	}
	if u.Stock != nil && *u.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	if u.VisibleTo != nil && *u.VisibleTo != market.VisiblePublic && *u.VisibleTo != market.VisibleCampus {
		return errors.New("unknown visible_to")
	}
	if u.Hashtags != nil {
		u.Hashtags = market.CleanHashtags(u.Hashtags)
	}
	return nil
}

func UpdatePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		p, e := ownPost(rc, r)
		if e != nil {
			return e
		}
		var u db.PostUpdate
		if e := parseJSON(r, &u); e != nil {
			return e
		}
		if err := validatePostUpdate(&u, p.PriceType); err != nil {
			return invalidData(err)
		}
		if p.Type != market.PostProduct && (u.Stock != nil || u.Condition != nil) {
			return invalidData(errors.New("stock and condition only apply to products"))
		}

		updated, err := rc.store.UpdatePost(r.Context(), p.ID, u)
		if err != nil {
			return storeError(err, "Post")
		}
		return writeJSON(w, http.StatusOK, updated)
	}
}

func DeletePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		p, e := ownPost(rc, r)
		if e != nil {
			return e
		}
		if err := rc.store.DeletePost(r.Context(), p.ID, rc.userID); err != nil {
			return storeError(err, "Post")
		}
		return writeJSON(w, http.StatusOK, &OkResponse{Status: OK})
	}
}

// LikePost toggles the caller's like.
func LikePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := pathID(r, "id", "Post")
		if e != nil {
			return e
		}
		liked, count, err := rc.store.ToggleLike(r.Context(), rc.userID, id)
		if err != nil {
			return storeError(err, "Post")
		}
		return writeJSON(w, http.StatusOK, &LikeResponse{Liked: liked, LikesCount: count})
	}
}

// SavePost toggles the caller's bookmark.
func SavePost() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := pathID(r, "id", "Post")
		if e != nil {
			return e
		}
		saved, err := rc.store.ToggleSave(r.Context(), rc.userID, id)
		if err != nil {
			return storeError(err, "Post")
		}
		return writeJSON(w, http.StatusOK, &SaveResponse{Saved: saved})
	}
}
