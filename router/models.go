package router

import (
	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
)

var OK = "OK"

type OkResponse struct {
	Status string `json:"status"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	Profile *db.Profile `json:"profile"`
}

// PostCard is a post with its display strings resolved.
type PostCard struct {
	db.Post
	PriceLabel string `json:"price_label"`
	TimeAgo    string `json:"time_ago"`
}

// PostView is a post card with the viewer's engagement flags.
type PostView struct {
	PostCard
	Liked bool `json:"liked"`
	Saved bool `json:"saved"`
}

type FeedResponse struct {
	Posts   []PostCard `json:"posts"`
	Page    int        `json:"page"`
	HasMore bool       `json:"has_more"`
}

type PostsResponse struct {
	Posts []PostCard `json:"posts"`
}

type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type SaveResponse struct {
	Saved bool `json:"saved"`
}

type OpenChatRequest struct {
	OtherUserID string `json:"other_user_id"`
}

type ChatResponse struct {
	db.Chat
	OtherUser *db.ChatPeer `json:"other_user,omitempty"`
}

type ChatsResponse struct {
	Chats []db.ChatSummary `json:"chats"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

// MessageView is a message with its decoded offer, if it carries one.
type MessageView struct {
	db.Message
	Offer *market.Offer `json:"offer,omitempty"`
}

type MessagesResponse struct {
	Messages []MessageView `json:"messages"`
}

type OfferRequest struct {
	Amount string `json:"amount"`
}

type RespondRequest struct {
	Status string `json:"status"`
}

type AddToCartRequest struct {
	PostID   string `json:"post_id"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant"`
}

type UpdateCartItemRequest struct {
	Quantity       *int    `json:"quantity"`
	ShippingMethod *string `json:"shipping_method"`
	Notes          *string `json:"notes"`
}

type CartResponse struct {
	Items    []market.CartItem            `json:"items"`
	Total    int64                        `json:"total"`
	BySeller map[string][]market.CartItem `json:"by_seller"`
}

type CheckoutRequest struct {
	LocationMeetup string `json:"location_meetup"`
	Notes          string `json:"notes"`
}

type CheckoutResponse struct {
	OrderIDs []string       `json:"order_ids"`
	Summary  market.Summary `json:"summary"`
}

type OrdersResponse struct {
	Orders []db.Order `json:"orders"`
}

// OrderView is an order detail with snapshot fallbacks resolved.
type OrderView struct {
	db.Order
	Title   string `json:"title"`
	Price   int64  `json:"price"`
	Image   string `json:"image"`
	Payable int64  `json:"payable"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
