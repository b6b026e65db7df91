package db

import (
	"time"

	"github.com/envelope-app/segora-backend/market"
)

type Profile struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"`
	AvatarURL           *string   `json:"avatar_url"`
	CoverPhoto          *string   `json:"cover_photo"`
	Biography           string    `json:"biography"`
	Location            string    `json:"location"`
	UniversityID        string    `json:"university_id"`
	UniversityName      string    `json:"university_name"`
	UniversityShortName string    `json:"university_short_name"`
	Year                *int      `json:"year"`
	Instagram           string    `json:"instagram,omitempty"`
	LinkedIn            string    `json:"linkedin,omitempty"`
	PostsCount          int       `json:"posts_count"`
	FollowersCount      int       `json:"followers_count"`
	FollowingCount      int       `json:"following_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Registration is the data collected by the sign-up form.
type Registration struct {
	Email               string `json:"email"`
	Password            string `json:"password"`
	Name                string `json:"name"`
	UniversityID        string `json:"university_id"`
	UniversityName      string `json:"university_name"`
	UniversityShortName string `json:"university_short_name"`
	Year                *int   `json:"year"`
}

// Credentials are what login checks a password against.
type Credentials struct {
	UserID            string
	Email             string
	EncryptedPassword string
}

// ProfileUpdate carries a self-service edit. Nil fields are left alone.
type ProfileUpdate struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Biography  *string `json:"biography"`
	AvatarURL  *string `json:"avatar_url"`
	CoverPhoto *string `json:"cover_photo"`
	Location   *string `json:"location"`
	Year       *int    `json:"year"`
	Instagram  *string `json:"instagram"`
	LinkedIn   *string `json:"linkedin"`
}

// Seller is the author summary joined onto posts.
type Seller struct {
	Name           string  `json:"name"`
	AvatarURL      *string `json:"avatar_url"`
	UniversityName string  `json:"university_name"`
}

type Post struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Type            market.PostType   `json:"type"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	Images          []string          `json:"images"`
	Price           int64             `json:"price"`
	PriceType       market.PriceType  `json:"price_type"`
	Negotiable      bool              `json:"negotiable"`
	Condition       *market.Condition `json:"condition,omitempty"`
	Stock           *int              `json:"stock,omitempty"`
	Weight          int               `json:"weight,omitempty"`
	Duration        string            `json:"duration,omitempty"`
	ServiceType     string            `json:"service_type,omitempty"`
	Campus          string            `json:"campus"`
	LocationDetail  string            `json:"location_detail"`
	ShippingMethods []string          `json:"shipping_methods"`
	Tags            []string          `json:"tags"`
	Hashtags        []string          `json:"hashtags"`
	VisibleTo       market.Visibility `json:"visible_to"`
	ViewsCount      int               `json:"views_count"`
	LikesCount      int               `json:"likes_count"`
	CommentsCount   int               `json:"comments_count"`
	SharesCount     int               `json:"shares_count"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Seller *Seller `json:"seller,omitempty"`
}

// PostUpdate carries an owner's edit. Nil fields are left alone.
type PostUpdate struct {
	Title          *string            `json:"title"`
	Description    *string            `json:"description"`
	Images         []string           `json:"images"`
	Price          *int64             `json:"price"`
	PriceType      *market.PriceType  `json:"price_type"`
	Negotiable     *bool              `json:"negotiable"`
	Condition      *market.Condition  `json:"condition"`
	Stock          *int               `json:"stock"`
	LocationDetail *string            `json:"location_detail"`
	Hashtags       []string           `json:"hashtags"`
	VisibleTo      *market.Visibility `json:"visible_to"`
}

// FeedQuery selects one page of the home feed.
type FeedQuery struct {
	Filter market.FeedFilter
	Campus string
	Page   int
}

// SearchQuery drives the explore tab.
type SearchQuery struct {
	Text     string
	Category string
}

type Chat struct {
	ID              string     `json:"id"`
	ParticipantOne  string     `json:"participant_one"`
	ParticipantTwo  string     `json:"participant_two"`
	LastMessage     *string    `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ChatPeer is the counterparty summary shown in the chat list.
type ChatPeer struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// ChatSummary is a chat with the other participant joined in.
type ChatSummary struct {
	Chat
	OtherUser ChatPeer `json:"other_user"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID             string             `json:"id"`
	BuyerID        string             `json:"buyer_id"`
	SellerID       string             `json:"seller_id"`
	PostID         *string            `json:"post_id"`
	SnapshotTitle  string             `json:"snapshot_title"`
	SnapshotPrice  int64              `json:"snapshot_price"`
	SnapshotImage  string             `json:"snapshot_image"`
	Quantity       int                `json:"quantity"`
	TotalPrice     int64              `json:"total_price"`
	Status         market.OrderStatus `json:"status"`
	LocationMeetup string             `json:"location_meetup"`
	Notes          string             `json:"notes"`
	ShippingMethod string             `json:"shipping_method"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	SellerName   string   `json:"seller_name,omitempty"`
	SellerAvatar *string  `json:"seller_avatar,omitempty"`
	BuyerName    string   `json:"buyer_name,omitempty"`
	PostTitle    string   `json:"post_title,omitempty"`
	PostImages   []string `json:"post_images,omitempty"`
	PostPrice    *int64   `json:"post_price,omitempty"`
}

// OrderRole picks which side of an order a listing is for.
type OrderRole string

const (
	RoleBuyer  OrderRole = "buyer"
	RoleSeller OrderRole = "seller"
)
