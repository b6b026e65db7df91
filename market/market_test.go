package market

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestCanonicalPair(t *testing.T) {
	one, two, err := CanonicalPair("bob", "alice")
	require.NoError(t, err)
	rOne, rTwo, err := CanonicalPair("alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, "alice", one)
	assert.Equal(t, "bob", two)
	assert.Equal(t, one, rOne)
	assert.Equal(t, two, rTwo)

	_, _, err = CanonicalPair("alice", "alice")
	assert.ErrorIs(t, err, ErrSelfChat)
}

func TestOtherParticipant(t *testing.T) {
	assert.Equal(t, "b", OtherParticipant("a", "b", "a"))
	assert.Equal(t, "a", OtherParticipant("a", "b", "b"))
	assert.Equal(t, "", OtherParticipant("a", "b", "c"))
}

func TestOffer(t *testing.T) {
	msg := EncodeOffer(75000, OfferPending)
	assert.Equal(t, "$$OFFER::75000::PENDING$$", msg)
	assert.True(t, IsOffer(msg))

	o, err := ParseOffer(msg)
	require.NoError(t, err)
	assert.Equal(t, "75000", o.Amount)
	assert.Equal(t, OfferPending, o.Status)

	_, err = ParseOffer("halo kak, masih ada?")
	assert.ErrorIs(t, err, ErrNotOffer)

	o, err = ParseOffer("$$OFFER::5000$$")
	require.NoError(t, err)
	assert.Equal(t, "5000", o.Amount)
	assert.Equal(t, OfferPending, o.Status)
}

func TestOfferAmountAndResponse(t *testing.T) {
	n, err := ParseAmount(" 15000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), n)

	for _, bad := range []string{"", "abc", "-1", "12.5"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}

	st, err := ParseResponse("accepted")
	require.NoError(t, err)
	assert.Equal(t, OfferAccepted, st)
	_, err = ParseResponse("PENDING")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	o := Offer{Amount: "50000"}
	assert.Equal(t, "✅ Saya menerima penawaran Rp 50000", ReplyTo(o, OfferAccepted))
	assert.Equal(t, "❌ Maaf, saya menolak penawaran Rp 50000", ReplyTo(o, OfferRejected))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, OfferPreview, Preview(EncodeOffer(1, OfferPending)))
	assert.Equal(t, "halo", Preview("halo"))
}

func TestCart(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(CartItem{PostID: "p1", SellerID: "s1", Price: 10000, Quantity: 1, Stock: 5}))
	require.NoError(t, c.Add(CartItem{PostID: "p2", SellerID: "s2", Price: 2500, Quantity: 2, Stock: 10}))
	require.NoError(t, c.Add(CartItem{PostID: "p1", SellerID: "s1", Price: 10000, Quantity: 2, Stock: 5}))

	require.Len(t, c.Items, 2, "same post and variant merges")
	assert.Equal(t, 3, c.Items[0].Quantity)

	var sum int64
	for _, it := range c.Items {
		sum += it.LineTotal()
	}
	assert.Equal(t, sum, c.Total())
	assert.Equal(t, int64(35000), c.Total())

	// another variant is a separate line
	require.NoError(t, c.Add(CartItem{PostID: "p2", SellerID: "s2", Variant: "merah", Price: 2500, Quantity: 1, Stock: 10}))
	assert.Len(t, c.Items, 3)

	groups := c.BySeller()
	assert.Len(t, groups["s1"], 1)
	assert.Len(t, groups["s2"], 2)
}

func TestCart_QuantityClamp(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(CartItem{PostID: "p1", Price: 1000, Quantity: 9, Stock: 3}))
	assert.Equal(t, 3, c.Items[0].Quantity)

	require.NoError(t, c.UpdateQuantity("p1", 0))
	assert.Equal(t, 1, c.Items[0].Quantity)

	require.NoError(t, c.UpdateQuantity("p1", 2))
	assert.Equal(t, 2, c.Items[0].Quantity)

	assert.ErrorIs(t, c.UpdateQuantity("nope", 1), ErrNotInCart)
	assert.ErrorIs(t, c.Add(CartItem{PostID: "p9", Stock: 0}), ErrOutOfStock)
}

func TestCart_RemoveAndUpdates(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(CartItem{PostID: "p1", Price: 1000, Stock: 1}))
	require.NoError(t, c.UpdateShipping("p1", "cod"))
	require.NoError(t, c.UpdateNotes("p1", "ketemu di kantin"))
	assert.Equal(t, "cod", c.Items[0].ShippingMethod)
	assert.Equal(t, "ketemu di kantin", c.Items[0].Notes)

	require.NoError(t, c.Remove("p1"))
	assert.True(t, c.Empty())
	assert.ErrorIs(t, c.Remove("p1"), ErrNotInCart)
	assert.Equal(t, int64(0), c.Total())
}

func TestCart_UpdatesEveryVariant(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(CartItem{PostID: "p1", Variant: "merah", Price: 1000, Stock: 5}))
	require.NoError(t, c.Add(CartItem{PostID: "p1", Variant: "biru", Price: 1000, Stock: 3}))
	require.NoError(t, c.Add(CartItem{PostID: "p2", Price: 500, Stock: 2}))
	require.Len(t, c.Items, 3)

	require.NoError(t, c.UpdateQuantity("p1", 4))
	require.NoError(t, c.UpdateNotes("p1", "warna cerah"))
	require.NoError(t, c.UpdateShipping("p1", "cod"))

	for _, it := range c.Items[:2] {
		assert.Equal(t, "warna cerah", it.Notes, it.Variant)
		assert.Equal(t, "cod", it.ShippingMethod, it.Variant)
	}
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.Equal(t, 3, c.Items[1].Quantity, "clamped to the variant's own stock")
	assert.Equal(t, 1, c.Items[2].Quantity)
	assert.Empty(t, c.Items[2].Notes)

	require.NoError(t, c.Remove("p1"))
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].PostID)

	c.Clear()
	assert.True(t, c.Empty())
}

func TestCleanMessage(t *testing.T) {
	got, err := CleanMessage("  halo  ")
	require.NoError(t, err)
	assert.Equal(t, "halo", got)

	_, err = CleanMessage(" \n ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	long := strings.Repeat("é", MaxMessageLength)
	got, err = CleanMessage(long)
	require.NoError(t, err)
	assert.Equal(t, long, got)

	_, err = CleanMessage(long + "x")
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestPriceLabel(t *testing.T) {
	assert.Equal(t, "GRATIS", PriceLabel(PriceFree, 0))
	assert.Equal(t, "Rp 75.000", PriceLabel(PriceFixed, 75000))
	assert.Equal(t, "Rp 1.250.000", PriceLabel(PriceNegotiable, 1250000))
}

func TestCheckout(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(CartItem{PostID: "p1", SellerID: "s1", Title: "Kalkulator", Price: 20000, Quantity: 2, Stock: 4, Notes: "yang hitam"}))
	require.NoError(t, c.Add(CartItem{PostID: "p2", SellerID: "s2", Title: "Buku", Price: 5000, Quantity: 1, Stock: 1}))

	s := Summarize(&c)
	assert.Equal(t, int64(45000), s.Subtotal)
	assert.Equal(t, int64(45000+ShippingFee+ServiceFee), s.Total)

	b := Buyer{ID: "buyer", UniversityName: "UI"}
	drafts, err := DraftOrders(b, &c, "", "tolong cepat")
	require.NoError(t, err)
	require.Len(t, drafts, 2, "one order per cart line")

	assert.Equal(t, int64(40000), drafts[0].TotalPrice)
	assert.Equal(t, OrderCODWaiting, drafts[0].Status)
	assert.Equal(t, "UI", drafts[0].LocationMeetup)
	assert.Equal(t, "yang hitam", drafts[0].Notes)
	assert.Equal(t, "tolong cepat", drafts[1].Notes)

	_, err = DraftOrders(b, &Cart{}, "", "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Equal(t, int64(12000), Payable(10000))
}

func TestMeetupFor(t *testing.T) {
	b := Buyer{Location: "Depok", UniversityName: "UI"}
	assert.Equal(t, "Gerbatama", MeetupFor(b, "Gerbatama"))
	assert.Equal(t, "Depok", MeetupFor(b, ""))
	b.Location = ""
	assert.Equal(t, "UI", MeetupFor(b, ""))
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, OrderCompleted.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestListingNormalize(t *testing.T) {
	t.Run("product defaults", func(t *testing.T) {
		l := Listing{Type: PostProduct, Title: " Kalkulator ", Category: "electronics", Images: []string{"/uploads/a.png"},
			Price: 50000, Hashtags: []string{"#Murah", "murah", " "}}
		require.NoError(t, l.Normalize())

		assert.Equal(t, "Kalkulator", l.Title)
		assert.Equal(t, PriceFixed, l.PriceType)
		require.NotNil(t, l.Condition)
		assert.Equal(t, ConditionNew, *l.Condition)
		require.NotNil(t, l.Stock)
		assert.Equal(t, 1, *l.Stock)
		assert.Equal(t, []string{"electronics"}, l.Tags)
		assert.Equal(t, []string{"murah"}, l.Hashtags)
		assert.Equal(t, VisiblePublic, l.VisibleTo)
	})

	t.Run("free zeroes price", func(t *testing.T) {
		l := Listing{Type: PostService, Title: "Les", Category: "tutor", Images: []string{"x"},
			Price: 90000, PriceType: PriceFree, Stock: intp(3)}
		require.NoError(t, l.Normalize())
		assert.Equal(t, int64(0), l.Price)
		assert.Nil(t, l.Stock, "services carry no stock")
	})

	t.Run("rejects", func(t *testing.T) {
		bad := []Listing{
			{Type: PostProduct, Title: "", Category: "books", Images: []string{"x"}},
			{Type: "auction", Title: "a", Category: "books", Images: []string{"x"}},
			{Type: PostProduct, Title: "a", Category: "weapons", Images: []string{"x"}},
			{Type: PostProduct, Title: "a", Category: "books"},
			{Type: PostProduct, Title: "a", Category: "books", Images: []string{"x"}, PriceType: "bid"},
			{Type: PostProduct, Title: "a", Category: "books", Images: []string{"x"}, Stock: intp(-2)},
		}
		for i := range bad {
			assert.ErrorIs(t, bad[i].Normalize(), ErrInvalidListing, "case %d", i)
		}
	})
}

func TestProfileTabs(t *testing.T) {
	tests := []struct {
		name    string
		typ     PostType
		stock   *int
		selling bool
		sold    bool
	}{
		{"product in stock", PostProduct, intp(2), true, false},
		{"product sold out", PostProduct, intp(0), false, true},
		{"product unknown stock", PostProduct, nil, true, false},
		{"service", PostService, nil, true, false},
		{"info with zero", PostInfo, intp(0), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.selling, InTab(TabSelling, tt.typ, tt.stock))
			assert.Equal(t, tt.sold, InTab(TabSold, tt.typ, tt.stock))
		})
	}

	tab, ok := ParseProfileTab("")
	assert.True(t, ok)
	assert.Equal(t, TabSelling, tab)
	_, ok = ParseProfileTab("archived")
	assert.False(t, ok)
}

func TestParseFeedFilter(t *testing.T) {
	f, ok := ParseFeedFilter("")
	assert.True(t, ok)
	assert.Equal(t, FeedForYou, f)

	f, ok = ParseFeedFilter("my_campus")
	assert.True(t, ok)
	assert.Equal(t, FeedMyCampus, f)

	_, ok = ParseFeedFilter("popular")
	assert.False(t, ok)
}
