package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
)

func GetMyProfile() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		return writeJSON(w, http.StatusOK, rc.profile)
	}
}

// UpdateMyProfile applies a partial edit to the caller's profile.
func UpdateMyProfile() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var u db.ProfileUpdate
		if e := parseJSON(r, &u); e != nil {
			return e
		}
		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return invalidData(errors.New("name must not be empty"))
			}
			u.Name = &name
		}
		if u.Year != nil && *u.Year < 0 {
			return invalidData(errors.New("year must not be negative"))
		}

		p, err := rc.store.UpdateProfile(r.Context(), rc.userID, u)
		if err != nil {
			return storeError(err, "Profile")
		}
		return writeJSON(w, http.StatusOK, p)
	}
}

// GetProfile returns another user's profile without contact details.
func GetProfile() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := pathID(r, "id", "Profile")
		if e != nil {
			return e
		}
		p, err := rc.store.GetProfile(r.Context(), id)
		if err != nil {
			return storeError(err, "Profile")
		}
		p.Email = ""
		p.Phone = ""
		return writeJSON(w, http.StatusOK, p)
	}
}

// ProfilePosts lists one tab of a profile. saved and liked are private to
// their owner; campus-only posts only show to the author's campus.
func ProfilePosts() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		id, e := pathID(r, "id", "Profile")
		if e != nil {
			return e
		}
		tab, ok := market.ParseProfileTab(r.URL.Query().Get("tab"))
		if !ok {
			return invalidData(errors.New("tab must be one of selling, sold, saved, liked"))
		}

		var (
			posts []db.Post
			err   error
		)
		switch tab {
		case market.TabSaved, market.TabLiked:
			if rc.userID != id {
				return forbidden("Only the owner can see this tab")
			}
			if tab == market.TabSaved {
				posts, err = rc.store.ListSaved(r.Context(), id)
			} else {
				posts, err = rc.store.ListLiked(r.Context(), id)
			}
		default:
			var all []db.Post
			all, err = rc.store.ListByUser(r.Context(), id)
			posts = make([]db.Post, 0, len(all))
			for i := range all {
				if market.InTab(tab, all[i].Type, all[i].Stock) && rc.visible(&all[i]) {
					posts = append(posts, all[i])
				}
			}
		}
		if err != nil {
			return storeError(err, "Profile")
		}
		return writeJSON(w, http.StatusOK, &PostsResponse{Posts: cards(posts)})
	}
}
