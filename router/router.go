package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/envelope-app/segora-backend/auth"
	"github.com/envelope-app/segora-backend/config"
	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/log"
	"github.com/envelope-app/segora-backend/market"
	"github.com/envelope-app/segora-backend/realtime"
)

// Store is the relational data the handlers need. *db.DB implements it.
type Store interface {
	Register(ctx context.Context, reg db.Registration, passwordHash string) (string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CredentialsByEmail(ctx context.Context, email string) (*db.Credentials, error)
	GetProfile(ctx context.Context, id string) (*db.Profile, error)
	UpdateProfile(ctx context.Context, id string, u db.ProfileUpdate) (*db.Profile, error)

	CreatePost(ctx context.Context, userID, campus string, l *market.Listing) (*db.Post, error)
	GetPost(ctx context.Context, id string) (*db.Post, error)
	UpdatePost(ctx context.Context, id string, u db.PostUpdate) (*db.Post, error)
	DeletePost(ctx context.Context, id, ownerID string) error
	ListFeed(ctx context.Context, q db.FeedQuery) ([]db.Post, error)
	Search(ctx context.Context, campus string, q db.SearchQuery) ([]db.Post, error)
	ListByUser(ctx context.Context, userID string) ([]db.Post, error)
	ListLiked(ctx context.Context, userID string) ([]db.Post, error)
	ListSaved(ctx context.Context, userID string) ([]db.Post, error)

	ToggleLike(ctx context.Context, userID, postID string) (bool, int, error)
	ToggleSave(ctx context.Context, userID, postID string) (bool, error)
	Engagement(ctx context.Context, userID, postID string) (bool, bool, error)

	FindOrCreateChat(ctx context.Context, me, other string) (*db.Chat, bool, error)
	GetChat(ctx context.Context, id string) (*db.Chat, error)
	ListChats(ctx context.Context, userID string) ([]db.ChatSummary, error)
	InsertMessage(ctx context.Context, chatID, senderID, content string) (*db.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]db.Message, error)
	GetMessage(ctx context.Context, chatID, messageID string) (*db.Message, error)

	CreateOrders(ctx context.Context, drafts []market.OrderDraft) ([]string, error)
	ListOrders(ctx context.Context, userID string, role db.OrderRole) ([]db.Order, error)
	GetOrder(ctx context.Context, id string) (*db.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status market.OrderStatus) error

	Ping(ctx context.Context) error
}

// Cache holds the Redis backed state: carts and revoked tokens. *db.DB
// implements it.
type Cache interface {
	LoadCart(userID string) (*market.Cart, error)
	SaveCart(userID string, c *market.Cart) error
	ClearCart(userID string) error
	RevokeToken(jti string, ttl time.Duration) error
	IsTokenRevoked(jti string) (bool, error)
}

// App is what every request shares.
type App struct {
	Store  Store
	Cache  Cache
	Issuer *auth.Issuer
	Hub    *realtime.Hub
	Config *config.Config
}

// RouterContext is created per request and passed down the handler chain.
type RouterContext struct {
	store  Store
	cache  Cache
	issuer *auth.Issuer
	hub    *realtime.Hub
	cfg    *config.Config

	// set by authenticate
	claims  *auth.Claims
	userID  string
	profile *db.Profile
}

type HTTPError struct {
	Level     int    `json:"-"`
	IError    error  `json:"-"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

type Handler func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError

func Handle(app *App, handlers ...Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		rc := &RouterContext{
			store:  app.Store,
			cache:  app.Cache,
			issuer: app.Issuer,
			hub:    app.Hub,
			cfg:    app.Config,
		}
		w.Header().Add("Content-Type", "application/json")

		for _, handler := range handlers {
			e := handler(rc, w, r)
			if e != nil {
				if e.IError != nil && (errors.Is(e.IError, context.DeadlineExceeded) || errors.Is(e.IError, context.Canceled)) {
					e.Status = http.StatusGatewayTimeout
					e.ErrorCode = ErrTimeout
				}
				if e.Error == "" {
					e.Error = http.StatusText(e.Status)
				}

				// 3 Levels of errors
				// Level 1: Don't log anything on server, Only return a response to the user
				// Level 2: Log the error as warning on the server, But don't send a response or close the request
				// Level 3: Log the request, Cancel the request from going any further and return an appropriate response
				switch e.Level {
				case 1:
					w.WriteHeader(e.Status)
					err := json.NewEncoder(w).Encode(e)
					if err != nil {
						w.Header().Set("Content-Type", "text/plain")
						w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
					}
					return

				case 2:
					log.Warn.Printf("%s %s: %v\n", r.Method, r.URL.Path, e.IError)

				case 3:
					log.Error.Printf("%s %s: %v\n", r.Method, r.URL.Path, e.IError)
					w.WriteHeader(e.Status)
					err := json.NewEncoder(w).Encode(e)
					if err != nil {
						log.Error.Printf("%v: %s\n", err, err)
						w.Header().Set("Content-Type", "text/plain")
						w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
					}
					return
				}
			}
		}
	})
}

// Init builds the API routes.
func Init(app *App) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Accounts
	api.Handle("/auth/register", Handle(app,
		Register(),
	)).Methods("POST")

	api.Handle("/auth/login", Handle(app,
		Login(),
	)).Methods("POST")

	api.Handle("/auth/logout", Handle(app,
		authenticate(true),
		Logout(),
	)).Methods("POST")

	// Profiles
	api.Handle("/profile/me", Handle(app,
		authenticate(true),
		loadProfile(),
		GetMyProfile(),
	)).Methods("GET")

	api.Handle("/profile/me", Handle(app,
		authenticate(true),
		UpdateMyProfile(),
	)).Methods("PATCH")

	api.Handle("/profile/{id}", Handle(app,
		GetProfile(),
	)).Methods("GET")

	api.Handle("/profile/{id}/posts", Handle(app,
		authenticate(false),
		softProfile(),
		ProfilePosts(),
	)).Methods("GET")

	// Posts
	api.Handle("/posts", Handle(app,
		authenticate(true),
		loadProfile(),
		CreatePost(),
	)).Methods("POST")

	api.Handle("/posts/{id}", Handle(app,
		authenticate(false),
		loadProfile(),
		GetPost(),
	)).Methods("GET")

	api.Handle("/posts/{id}", Handle(app,
		authenticate(true),
		UpdatePost(),
	)).Methods("PATCH")

	api.Handle("/posts/{id}", Handle(app,
		authenticate(true),
		DeletePost(),
	)).Methods("DELETE")

	api.Handle("/posts/{id}/like", Handle(app,
		authenticate(true),
		LikePost(),
	)).Methods("POST")

	api.Handle("/posts/{id}/save", Handle(app,
		authenticate(true),
		SavePost(),
	)).Methods("POST")

	// Feed and discovery
	api.Handle("/feed", Handle(app,
		authenticate(false),
		softProfile(),
		Feed(),
	)).Methods("GET")

	api.Handle("/feed/stream", Handle(app,
		authenticate(true),
		softProfile(),
		FeedStream(),
	)).Methods("GET")

	api.Handle("/explore", Handle(app,
		authenticate(false),
		softProfile(),
		Explore(),
	)).Methods("GET")

	api.Handle("/catalog/campuses", Handle(app,
		Campuses(),
	)).Methods("GET")

	api.Handle("/catalog/categories", Handle(app,
		Categories(),
	)).Methods("GET")

	// Chats
	api.Handle("/chats", Handle(app,
		authenticate(true),
		OpenChat(),
	)).Methods("POST")

	api.Handle("/chats", Handle(app,
		authenticate(true),
		ListChats(),
	)).Methods("GET")

	api.Handle("/chats/{id}", Handle(app,
		authenticate(true),
		GetChat(),
	)).Methods("GET")

	api.Handle("/chats/{id}/messages", Handle(app,
		authenticate(true),
		ListMessages(),
	)).Methods("GET")

	api.Handle("/chats/{id}/messages", Handle(app,
		authenticate(true),
		SendMessage(),
	)).Methods("POST")

	api.Handle("/chats/{id}/offers", Handle(app,
		authenticate(true),
		SendOffer(),
	)).Methods("POST")

	api.Handle("/chats/{id}/messages/{messageId}/respond", Handle(app,
		authenticate(true),
		RespondToOffer(),
	)).Methods("POST")

	api.Handle("/chats/{id}/stream", Handle(app,
		authenticate(true),
		ChatStream(),
	)).Methods("GET")

	// Cart and checkout
	api.Handle("/cart", Handle(app,
		authenticate(true),
		GetCart(),
	)).Methods("GET")

	api.Handle("/cart", Handle(app,
		authenticate(true),
		ClearCart(),
	)).Methods("DELETE")

	api.Handle("/cart/items", Handle(app,
		authenticate(true),
		AddToCart(),
	)).Methods("POST")

	api.Handle("/cart/items/{postId}", Handle(app,
		authenticate(true),
		UpdateCartItem(),
	)).Methods("PATCH")

	api.Handle("/cart/items/{postId}", Handle(app,
		authenticate(true),
		RemoveCartItem(),
	)).Methods("DELETE")

	api.Handle("/checkout", Handle(app,
		authenticate(true),
		loadProfile(),
		Checkout(),
	)).Methods("POST")

	// Orders
	api.Handle("/orders", Handle(app,
		authenticate(true),
		ListOrders(),
	)).Methods("GET")

	api.Handle("/orders/{id}", Handle(app,
		authenticate(true),
		GetOrder(),
	)).Methods("GET")

	api.Handle("/orders/{id}/status", Handle(app,
		authenticate(true),
		UpdateOrderStatus(),
	)).Methods("PATCH")

	// Uploads
	api.Handle("/upload", Handle(app,
		authenticate(true),
		Upload(),
	)).Methods("POST")

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.Config.Upload.Dir)))).Methods("GET")

	r.Handle("/healthz", Handle(app,
		Health(),
	)).Methods("GET")

	return withCORS(app.Config.PublicBaseURL, withAccessLog(r))
}

// Health pings Postgres and Redis.
func Health() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rc.store.Ping(ctx); err != nil {
			return &HTTPError{
				IError:    err,
				Level:     3,
				Error:     "unhealthy",
				ErrorCode: ErrInternal,
				Status:    http.StatusServiceUnavailable,
			}
		}
		return writeJSON(w, http.StatusOK, &OkResponse{Status: OK})
	}
}
