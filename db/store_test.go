package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envelope-app/segora-backend/log"
	"github.com/envelope-app/segora-backend/market"
)

// newTestStore connects to the database named by SEGORA_TEST_POSTGRES_URL,
// migrates it and returns a store. Tests are skipped when it is unset.
func newTestStore(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("SEGORA_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SEGORA_TEST_POSTGRES_URL not set")
	}
	log.Silence()

	require.NoError(t, MigrateUp(url))

	pg, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	return New(pg, rc, time.Hour)
}

func registerUser(t *testing.T, d *DB, campus string) string {
	t.Helper()
	email := fmt.Sprintf("%s@kampus.ac.id", uuid.NewString())
	id, err := d.Register(context.Background(), Registration{
		Email:          email,
		Name:           "Mahasiswa",
		UniversityName: campus,
	}, "hash")
	require.NoError(t, err)
	return id
}

func createListing(t *testing.T, d *DB, userID, campus string, stock int) *Post {
	t.Helper()
	l := &market.Listing{
		Type:      market.PostProduct,
		Title:     "Buku Kalkulus",
		Category:  "books",
		Images:    []string{"/uploads/a.jpg"},
		Price:     50000,
		PriceType: market.PriceFixed,
		Stock:     &stock,
	}
	require.NoError(t, l.Normalize())
	p, err := d.CreatePost(context.Background(), userID, campus, l)
	require.NoError(t, err)
	return p
}

func TestRegister_DuplicateEmail(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	reg := Registration{Email: uuid.NewString() + "@kampus.ac.id", Name: "A"}
	_, err := d.Register(ctx, reg, "hash")
	require.NoError(t, err)

	_, err = d.Register(ctx, reg, "hash")
	assert.ErrorIs(t, err, ErrEmailTaken)

	exists, err := d.EmailExists(ctx, reg.Email)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreatePost_BumpsPostsCount(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	u := registerUser(t, d, "Universitas Indonesia")
	p := createListing(t, d, u, "Universitas Indonesia", 3)
	assert.Equal(t, []string{"books"}, p.Tags)
	require.NotNil(t, p.Seller)
	assert.Equal(t, "Mahasiswa", p.Seller.Name)

	prof, err := d.GetProfile(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 1, prof.PostsCount)

	require.NoError(t, d.DeletePost(ctx, p.ID, u))
	prof, err = d.GetProfile(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 0, prof.PostsCount)

	assert.ErrorIs(t, d.DeletePost(ctx, p.ID, u), ErrNotFound)
}

func TestToggleLike_Twice(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	u := registerUser(t, d, "ITB")
	p := createListing(t, d, u, "ITB", 1)

	liked, count, err := d.ToggleLike(ctx, u, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = d.ToggleLike(ctx, u, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	saved, err := d.ToggleSave(ctx, u, p.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	saved, err = d.ToggleSave(ctx, u, p.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	_, _, err = d.ToggleLike(ctx, u, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindOrCreateChat_Canonical(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	a := registerUser(t, d, "UGM")
	b := registerUser(t, d, "UGM")

	first, created, err := d.FindOrCreateChat(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := d.FindOrCreateChat(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = d.FindOrCreateChat(ctx, a, a)
	assert.ErrorIs(t, err, ErrSelfChat)

	_, _, err = d.FindOrCreateChat(ctx, a, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertMessage_UpdatesPreview(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	a := registerUser(t, d, "UGM")
	b := registerUser(t, d, "UGM")
	chat, _, err := d.FindOrCreateChat(ctx, a, b)
	require.NoError(t, err)

	_, err = d.InsertMessage(ctx, chat.ID, a, "Halo, masih ada?")
	require.NoError(t, err)
	offer, err := d.InsertMessage(ctx, chat.ID, b, market.EncodeOffer(45000, market.OfferPending))
	require.NoError(t, err)

	got, err := d.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, market.OfferPreview, *got.LastMessage)

	msgs, err := d.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Halo, masih ada?", msgs[0].Content)

	m, err := d.GetMessage(ctx, chat.ID, offer.ID)
	require.NoError(t, err)
	assert.True(t, market.IsOffer(m.Content))

	chats, err := d.ListChats(ctx, a)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, b, chats[0].OtherUser.ID)
}

func TestCreateOrders(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	seller := registerUser(t, d, "UNPAD")
	buyer := registerUser(t, d, "UNPAD")
	p1 := createListing(t, d, seller, "UNPAD", 5)
	p2 := createListing(t, d, seller, "UNPAD", 5)

	cart := &market.Cart{}
	require.NoError(t, cart.Add(market.CartItem{PostID: p1.ID, SellerID: seller, Title: p1.Title, Price: 50000, Quantity: 2, Stock: 5}))
	require.NoError(t, cart.Add(market.CartItem{PostID: p2.ID, SellerID: seller, Title: p2.Title, Price: 50000, Quantity: 1, Stock: 5}))

	drafts, err := market.DraftOrders(market.Buyer{ID: buyer, UniversityName: "UNPAD"}, cart, "", "")
	require.NoError(t, err)

	ids, err := d.CreateOrders(ctx, drafts)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	mine, err := d.ListOrders(ctx, buyer, RoleBuyer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	o, err := d.GetOrder(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, market.OrderCODWaiting, o.Status)
	assert.Equal(t, "UNPAD", o.LocationMeetup)

	require.NoError(t, d.UpdateOrderStatus(ctx, o.ID, market.OrderCompleted))
	o, err = d.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, market.OrderCompleted, o.Status)

	// no stock decrement
	post, err := d.GetPost(ctx, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, post.Stock)
	assert.Equal(t, 5, *post.Stock)
}

func TestListFeed_CampusVisibility(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	campus := "Kampus " + uuid.NewString()
	u := registerUser(t, d, campus)
	p := createListing(t, d, u, campus, 1)

	vis := market.VisibleCampus
	_, err := d.UpdatePost(ctx, p.ID, PostUpdate{VisibleTo: &vis})
	require.NoError(t, err)

	own, err := d.ListFeed(ctx, FeedQuery{Filter: market.FeedMyCampus, Campus: campus})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, p.ID, own[0].ID)

	other, err := d.Search(ctx, "Kampus Lain", SearchQuery{Text: "kalkulus"})
	require.NoError(t, err)
	for _, q := range other {
		assert.NotEqual(t, p.ID, q.ID)
	}
}

func TestSearch_AnonymousSkipsCampusOnly(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	u := registerUser(t, d, "")
	p := createListing(t, d, u, "", 1)
	vis := market.VisibleCampus
	_, err := d.UpdatePost(ctx, p.ID, PostUpdate{VisibleTo: &vis})
	require.NoError(t, err)

	found, err := d.Search(ctx, "", SearchQuery{Text: "kalkulus"})
	require.NoError(t, err)
	for _, q := range found {
		assert.NotEqual(t, p.ID, q.ID)
	}
	feed, err := d.ListFeed(ctx, FeedQuery{Filter: market.FeedNewest})
	require.NoError(t, err)
	for _, q := range feed {
		assert.NotEqual(t, p.ID, q.ID)
	}
}

func TestInsertMessage_LongContentNotifiesWithoutBody(t *testing.T) {
	d := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, os.Getenv("SEGORA_TEST_POSTGRES_URL"))
	require.NoError(t, err)
	defer conn.Close(context.Background())
	_, err = conn.Exec(ctx, "LISTEN messages_inserted")
	require.NoError(t, err)

	a := registerUser(t, d, "UI")
	b := registerUser(t, d, "UI")
	chat, _, err := d.FindOrCreateChat(ctx, a, b)
	require.NoError(t, err)

	long := strings.Repeat("é", market.MaxMessageLength)
	m, err := d.InsertMessage(ctx, chat.ID, a, long)
	require.NoError(t, err)

	for {
		n, err := conn.WaitForNotification(ctx)
		require.NoError(t, err)
		var got struct {
			ID        string  `json:"id"`
			Content   *string `json:"content"`
			Truncated bool    `json:"truncated"`
		}
		require.NoError(t, json.Unmarshal([]byte(n.Payload), &got))
		if got.ID != m.ID {
			continue
		}
		assert.True(t, got.Truncated)
		assert.Nil(t, got.Content)
		return
	}
}
