// Package market holds the marketplace rules that do not depend on storage:
// listing defaults, profile tabs, feed filters, offers, chat pairs, carts
// and checkout totals.
package market

import (
	"errors"
	"fmt"
	"strings"

	"github.com/envelope-app/segora-backend/common"
)

type PostType string

const (
	PostProduct PostType = "product"
	PostService PostType = "service"
	PostInfo    PostType = "info"
)

func (t PostType) Valid() bool {
	switch t {
	case PostProduct, PostService, PostInfo:
		return true
	}
	return false
}

type PriceType string

const (
	PriceFixed      PriceType = "fixed"
	PriceStarting   PriceType = "starting"
	PriceNegotiable PriceType = "negotiable"
	PriceFree       PriceType = "free"
)

func (p PriceType) Valid() bool {
	switch p {
	case PriceFixed, PriceStarting, PriceNegotiable, PriceFree:
		return true
	}
	return false
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

type Visibility string

const (
	VisiblePublic Visibility = "public"
	VisibleCampus Visibility = "campus"
)

var ErrInvalidListing = errors.New("invalid listing")

// Listing is what a seller submits when creating a post.
type Listing struct {
	Type            PostType   `json:"type"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Images          []string   `json:"images"`
	Price           int64      `json:"price"`
	PriceType       PriceType  `json:"price_type"`
	Negotiable      bool       `json:"negotiable"`
	Condition       *Condition `json:"condition,omitempty"`
	Stock           *int       `json:"stock,omitempty"`
	Weight          int        `json:"weight"`
	Duration        string     `json:"duration,omitempty"`
	ServiceType     string     `json:"service_type,omitempty"`
	LocationDetail  string     `json:"location_detail"`
	ShippingMethods []string   `json:"shipping_methods"`
	Hashtags        []string   `json:"hashtags"`
	Tags            []string   `json:"-"`
	VisibleTo       Visibility `json:"visible_to"`
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidListing, fmt.Sprintf(format, args...))
}

// Normalize validates the listing and fills in the defaults applied at
// publish time.
func (l *Listing) Normalize() error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return invalid("title is required")
	}
	if !l.Type.Valid() {
		return invalid("unknown type %q", l.Type)
	}
	if l.PriceType == "" {
		l.PriceType = PriceFixed
	}
	if !l.PriceType.Valid() {
		return invalid("unknown price_type %q", l.PriceType)
	}
	if _, ok := common.LookupCategory(l.Category); !ok {
		return invalid("unknown category %q", l.Category)
	}
	if len(l.Images) == 0 {
		return invalid("at least one image is required")
	}
	if l.Price < 0 {
		return invalid("price must not be negative")
	}
	if l.PriceType == PriceFree {
		l.Price = 0
	}

	if l.Type == PostProduct {
		if l.Condition == nil || *l.Condition == "" {
			c := ConditionNew
			l.Condition = &c
		}
		if !l.Condition.Valid() {
			return invalid("unknown condition %q", *l.Condition)
		}
		if l.Stock == nil || *l.Stock == 0 {
			one := 1
			l.Stock = &one
		}
		if *l.Stock < 0 {
			return invalid("stock must not be negative")
		}
	} else {
		l.Condition = nil
		l.Stock = nil
		l.Weight = 0
	}
	if l.Type != PostService {
		l.Duration = ""
		l.ServiceType = ""
	}

	if l.VisibleTo == "" {
		l.VisibleTo = VisiblePublic
	}
	if l.VisibleTo != VisiblePublic && l.VisibleTo != VisibleCampus {
		return invalid("unknown visible_to %q", l.VisibleTo)
	}

	l.Tags = []string{strings.ToLower(l.Category)}
	l.Hashtags = CleanHashtags(l.Hashtags)
	if l.ShippingMethods == nil {
		l.ShippingMethods = []string{}
	}
	return nil
}

// CleanHashtags lowercases hashtags, strips the leading # and drops blanks
// and duplicates.
func CleanHashtags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, h := range in {
		h = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "#"))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// ProfileTab selects which of a profile's posts are listed.
type ProfileTab string

const (
	TabSelling ProfileTab = "selling"
	TabSold    ProfileTab = "sold"
	TabSaved   ProfileTab = "saved"
	TabLiked   ProfileTab = "liked"
)

func ParseProfileTab(s string) (ProfileTab, bool) {
	switch t := ProfileTab(s); t {
	case TabSelling, TabSold, TabSaved, TabLiked:
		return t, true
	case "":
		return TabSelling, true
	}
	return "", false
}

// SoldOut reports whether a post counts as sold: a product whose stock is
// known and exactly zero.
func SoldOut(t PostType, stock *int) bool {
	return t == PostProduct && stock != nil && *stock == 0
}

// InTab reports whether a profile's own post belongs on the selling or sold
// tab. Services and info posts are always "selling".
func InTab(tab ProfileTab, t PostType, stock *int) bool {
	switch tab {
	case TabSold:
		return SoldOut(t, stock)
	case TabSelling:
		return !SoldOut(t, stock)
	}
	return true
}

// PriceLabel is the price as shown on a listing card.
func PriceLabel(pt PriceType, price int64) string {
	if pt == PriceFree {
		return "GRATIS"
	}
	return common.FormatPrice(price)
}

// FeedFilter is the tab selected on the home feed.
type FeedFilter string

const (
	FeedForYou   FeedFilter = "for_you"
	FeedTrending FeedFilter = "trending"
	FeedMyCampus FeedFilter = "my_campus"
	FeedNewest   FeedFilter = "newest"
)

const (
	FeedPageSize = 10
	ExploreLimit = 20
)

func ParseFeedFilter(s string) (FeedFilter, bool) {
	switch f := FeedFilter(s); f {
	case FeedForYou, FeedTrending, FeedMyCampus, FeedNewest:
		return f, true
	case "":
		return FeedForYou, true
	}
	return "", false
}
