package router

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
)

// fakeStore is an in-memory Store. Methods a test does not need are left to
// the embedded nil interface and panic when called.
type fakeStore struct {
	Store

	mu       sync.Mutex
	profiles map[string]*db.Profile
	creds    map[string]*db.Credentials
	posts    map[string]*db.Post
	likes    map[string]bool
	saves    map[string]bool
	chats    map[string]*db.Chat
	messages []db.Message
	orders   map[string]*db.Order

	feedErr    error
	pingErr    error
	profileErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]*db.Profile),
		creds:    make(map[string]*db.Credentials),
		posts:    make(map[string]*db.Post),
		likes:    make(map[string]bool),
		saves:    make(map[string]bool),
		chats:    make(map[string]*db.Chat),
		orders:   make(map[string]*db.Order),
	}
}

func pair(a, b string) string { return a + "|" + b }

func (f *fakeStore) Register(ctx context.Context, reg db.Registration, hash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.creds[reg.Email]; ok {
		return "", db.ErrEmailTaken
	}
	id := uuid.NewString()
	f.creds[reg.Email] = &db.Credentials{UserID: id, Email: reg.Email, EncryptedPassword: hash}
	f.profiles[id] = &db.Profile{
		ID:             id,
		Email:          reg.Email,
		Name:           reg.Name,
		UniversityID:   reg.UniversityID,
		UniversityName: reg.UniversityName,
		Year:           reg.Year,
	}
	return id, nil
}

func (f *fakeStore) EmailExists(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.creds[email]
	return ok, nil
}

func (f *fakeStore) CredentialsByEmail(ctx context.Context, email string) (*db.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetProfile(ctx context.Context, id string) (*db.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdateProfile(ctx context.Context, id string, u db.ProfileUpdate) (*db.Profile, error) {
	f.mu.Lock()
	p, ok := f.profiles[id]
	if !ok {
		f.mu.Unlock()
		return nil, db.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Biography != nil {
		p.Biography = *u.Biography
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	f.mu.Unlock()
	return f.GetProfile(ctx, id)
}

func (f *fakeStore) CreatePost(ctx context.Context, userID, campus string, l *market.Listing) (*db.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	author, ok := f.profiles[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	p := &db.Post{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            l.Type,
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		Images:          l.Images,
		Price:           l.Price,
		PriceType:       l.PriceType,
		Negotiable:      l.Negotiable,
		Condition:       l.Condition,
		Stock:           l.Stock,
		Campus:          campus,
		ShippingMethods: l.ShippingMethods,
		Tags:            l.Tags,
		Hashtags:        l.Hashtags,
		VisibleTo:       l.VisibleTo,
		CreatedAt:       time.Now(),
		Seller:          &db.Seller{Name: author.Name, UniversityName: author.UniversityName},
	}
	f.posts[p.ID] = p
	author.PostsCount++
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetPost(ctx context.Context, id string) (*db.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdatePost(ctx context.Context, id string, u db.PostUpdate) (*db.Post, error) {
	f.mu.Lock()
	p, ok := f.posts[id]
	if !ok {
		f.mu.Unlock()
		return nil, db.ErrNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.PriceType != nil {
		p.PriceType = *u.PriceType
	}
	if u.Stock != nil {
		n := *u.Stock
		p.Stock = &n
	}
	if u.VisibleTo != nil {
		p.VisibleTo = *u.VisibleTo
	}
	f.mu.Unlock()
	return f.GetPost(ctx, id)
}

func (f *fakeStore) DeletePost(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok || p.UserID != ownerID {
		return db.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) sorted(keep func(*db.Post) bool) []db.Post {
	out := []db.Post{}
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeStore) ListFeed(ctx context.Context, q db.FeedQuery) ([]db.Post, error) {
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p *db.Post) bool {
		return q.Filter != market.FeedMyCampus || p.Campus == q.Campus
	}), nil
}

func (f *fakeStore) Search(ctx context.Context, campus string, q db.SearchQuery) ([]db.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p *db.Post) bool {
		return q.Category == "" || p.Category == q.Category
	}), nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string) ([]db.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p *db.Post) bool { return p.UserID == userID }), nil
}

func (f *fakeStore) ListLiked(ctx context.Context, userID string) ([]db.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p *db.Post) bool { return f.likes[pair(userID, p.ID)] }), nil
}

func (f *fakeStore) ListSaved(ctx context.Context, userID string) ([]db.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p *db.Post) bool { return f.saves[pair(userID, p.ID)] }), nil
}

func (f *fakeStore) ToggleLike(ctx context.Context, userID, postID string) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	if !ok {
		return false, 0, db.ErrNotFound
	}
	k := pair(userID, postID)
	if f.likes[k] {
		delete(f.likes, k)
		if p.LikesCount > 0 {
			p.LikesCount--
		}
		return false, p.LikesCount, nil
	}
	f.likes[k] = true
	p.LikesCount++
	return true, p.LikesCount, nil
}

func (f *fakeStore) ToggleSave(ctx context.Context, userID, postID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postID]; !ok {
		return false, db.ErrNotFound
	}
	k := pair(userID, postID)
	if f.saves[k] {
		delete(f.saves, k)
		return false, nil
	}
	f.saves[k] = true
	return true, nil
}

func (f *fakeStore) Engagement(ctx context.Context, userID, postID string) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair(userID, postID)
	return f.likes[k], f.saves[k], nil
}

func (f *fakeStore) FindOrCreateChat(ctx context.Context, me, other string) (*db.Chat, bool, error) {
	one, two, err := market.CanonicalPair(me, other)
	if err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[other]; !ok {
		return nil, false, db.ErrNotFound
	}
	for _, c := range f.chats {
		if c.ParticipantOne == one && c.ParticipantTwo == two {
			cp := *c
			return &cp, false, nil
		}
	}
	c := &db.Chat{ID: uuid.NewString(), ParticipantOne: one, ParticipantTwo: two, CreatedAt: time.Now()}
	f.chats[c.ID] = c
	cp := *c
	return &cp, true, nil
}

func (f *fakeStore) GetChat(ctx context.Context, id string) (*db.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListChats(ctx context.Context, userID string) ([]db.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.ChatSummary{}
	for _, c := range f.chats {
		if c.ParticipantOne != userID && c.ParticipantTwo != userID {
			continue
		}
		other := f.profiles[market.OtherParticipant(c.ParticipantOne, c.ParticipantTwo, userID)]
		out = append(out, db.ChatSummary{Chat: *c, OtherUser: db.ChatPeer{ID: other.ID, Name: other.Name}})
	}
	return out, nil
}

func (f *fakeStore) InsertMessage(ctx context.Context, chatID, senderID, content string) (*db.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return nil, db.ErrNotFound
	}
	m := db.Message{ID: uuid.NewString(), ChatID: chatID, SenderID: senderID, Content: content, CreatedAt: time.Now()}
	f.messages = append(f.messages, m)
	preview := market.Preview(content)
	c.LastMessage = &preview
	c.LastMessageTime = &m.CreatedAt
	return &m, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, chatID string) ([]db.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.Message{}
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) GetMessage(ctx context.Context, chatID, messageID string) (*db.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == messageID && m.ChatID == chatID {
			cp := m
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) CreateOrders(ctx context.Context, drafts []market.OrderDraft) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		postID := d.PostID
		o := &db.Order{
			ID:             uuid.NewString(),
			BuyerID:        d.BuyerID,
			SellerID:       d.SellerID,
			PostID:         &postID,
			SnapshotTitle:  d.Title,
			SnapshotPrice:  d.Price,
			SnapshotImage:  d.Image,
			Quantity:       d.Quantity,
			TotalPrice:     d.TotalPrice,
			Status:         d.Status,
			LocationMeetup: d.LocationMeetup,
			Notes:          d.Notes,
			ShippingMethod: d.ShippingMethod,
			CreatedAt:      time.Now(),
		}
		f.orders[o.ID] = o
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (f *fakeStore) ListOrders(ctx context.Context, userID string, role db.OrderRole) ([]db.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.Order{}
	for _, o := range f.orders {
		if (role == db.RoleBuyer && o.BuyerID == userID) || (role == db.RoleSeller && o.SellerID == userID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id string) (*db.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, id string, status market.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return db.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}
