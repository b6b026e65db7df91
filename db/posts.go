package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/envelope-app/segora-backend/market"
)

const postSelect = `SELECT p.id, p.user_id, p.type, p.title, p.description, p.category, p.images,
	p.price, p.price_type, p.negotiable, p.condition, p.stock, p.weight, p.duration, p.service_type,
	p.campus, p.location_detail, p.shipping_methods, p.tags, p.hashtags, p.visible_to,
	p.views_count, p.likes_count, p.comments_count, p.shares_count, p.created_at, p.updated_at,
	pr.name, pr.avatar_url, pr.university_name
	FROM posts p
	LEFT JOIN profiles pr ON pr.id = p.user_id`

// visibleClause hides campus-only posts from other campuses and from viewers
// without one. $1 is the viewer's campus.
const visibleClause = `(p.visible_to = 'public' OR ($1 <> '' AND p.campus = $1))`

func scanPost(s scanner) (*Post, error) {
	var (
		p                        Post
		condition                sql.NullString
		stock                    sql.NullInt64
		sellerName, sellerCampus sql.NullString
		sellerAvatar             sql.NullString
	)
	err := s.Scan(&p.ID, &p.UserID, &p.Type, &p.Title, &p.Description, &p.Category, pq.Array(&p.Images),
		&p.Price, &p.PriceType, &p.Negotiable, &condition, &stock, &p.Weight, &p.Duration, &p.ServiceType,
		&p.Campus, &p.LocationDetail, pq.Array(&p.ShippingMethods), pq.Array(&p.Tags), pq.Array(&p.Hashtags), &p.VisibleTo,
		&p.ViewsCount, &p.LikesCount, &p.CommentsCount, &p.SharesCount, &p.CreatedAt, &p.UpdatedAt,
		&sellerName, &sellerAvatar, &sellerCampus)
	if err != nil {
		return nil, notFound(err)
	}
	if condition.Valid {
		c := market.Condition(condition.String)
		p.Condition = &c
	}
	if stock.Valid {
		n := int(stock.Int64)
		p.Stock = &n
	}
	if sellerName.Valid {
		p.Seller = &Seller{
			Name:           sellerName.String,
			AvatarURL:      nullString(sellerAvatar),
			UniversityName: sellerCampus.String,
		}
	}
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// CreatePost publishes a normalized listing for userID and bumps the
// author's posts_count.
func (d *DB) CreatePost(ctx context.Context, userID, campus string, l *market.Listing) (*Post, error) {
	var id string
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var condition *string
		if l.Condition != nil {
			c := string(*l.Condition)
			condition = &c
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO posts (user_id, type, title, description, category, images, price, price_type,
				negotiable, condition, stock, weight, duration, service_type, campus, location_detail,
				shipping_methods, tags, hashtags, visible_to)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			RETURNING id`,
			userID, string(l.Type), l.Title, l.Description, l.Category, pq.Array(l.Images), l.Price, string(l.PriceType),
			l.Negotiable, condition, l.Stock, l.Weight, l.Duration, l.ServiceType, campus, l.LocationDetail,
			pq.Array(l.ShippingMethods), pq.Array(l.Tags), pq.Array(l.Hashtags), string(l.VisibleTo)).Scan(&id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert post: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE profiles SET posts_count = posts_count + 1 WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("bump posts_count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.GetPost(ctx, id)
}

func (d *DB) GetPost(ctx context.Context, id string) (*Post, error) {
	row := d.Db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1 LIMIT 1`, id)
	return scanPost(row)
}

// UpdatePost applies the non-nil fields of u. Ownership is checked by the
// caller.
func (d *DB) UpdatePost(ctx context.Context, id string, u PostUpdate) (*Post, error) {
	var priceType, condition, visibleTo *string
	if u.PriceType != nil {
		s := string(*u.PriceType)
		priceType = &s
	}
	if u.Condition != nil {
		s := string(*u.Condition)
		condition = &s
	}
	if u.VisibleTo != nil {
		s := string(*u.VisibleTo)
		visibleTo = &s
	}

	res, err := d.Db.ExecContext(ctx, `
		UPDATE posts SET
			title           = COALESCE($2, title),
			description     = COALESCE($3, description),
			images          = COALESCE($4, images),
			price           = COALESCE($5, price),
			price_type      = COALESCE($6, price_type),
			negotiable      = COALESCE($7, negotiable),
			condition       = COALESCE($8, condition),
			stock           = COALESCE($9, stock),
			location_detail = COALESCE($10, location_detail),
			hashtags        = COALESCE($11, hashtags),
			visible_to      = COALESCE($12, visible_to),
			updated_at      = now()
		WHERE id = $1`,
		id, u.Title, u.Description, pq.Array(u.Images), u.Price, priceType, u.Negotiable, condition,
		u.Stock, u.LocationDetail, pq.Array(u.Hashtags), visibleTo)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetPost(ctx, id)
}

// DeletePost removes a post and decrements the owner's posts_count.
func (d *DB) DeletePost(ctx context.Context, id, ownerID string) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE profiles SET posts_count = GREATEST(posts_count - 1, 0) WHERE id = $1`, ownerID)
		if err != nil {
			return fmt.Errorf("drop posts_count: %w", err)
		}
		return nil
	})
}

// ListFeed returns one page of the home feed.
func (d *DB) ListFeed(ctx context.Context, q FeedQuery) ([]Post, error) {
	page := q.Page
	if page < 0 {
		page = 0
	}
	order := `p.created_at DESC`
	if q.Filter == market.FeedTrending {
		order = `p.likes_count DESC, p.created_at DESC`
	}
	onlyCampus := ""
	if q.Filter == market.FeedMyCampus {
		onlyCampus = q.Campus
	}

	rows, err := d.Db.QueryContext(ctx, postSelect+`
		WHERE `+visibleClause+`
		  AND ($2 = '' OR p.campus = $2)
		ORDER BY `+order+`
		LIMIT $3 OFFSET $4`,
		q.Campus, onlyCampus, market.FeedPageSize, page*market.FeedPageSize)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return scanPosts(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Search matches title or description case-insensitively, or an exact
// hashtag, optionally within one category. campus is the viewer's campus.
func (d *DB) Search(ctx context.Context, campus string, q SearchQuery) ([]Post, error) {
	text := strings.TrimSpace(q.Text)
	rows, err := d.Db.QueryContext(ctx, postSelect+`
		WHERE `+visibleClause+`
		  AND ($2 = '' OR p.title ILIKE $3 OR p.description ILIKE $3 OR lower($2) = ANY(p.hashtags))
		  AND ($4 = '' OR p.category = $4)
		ORDER BY p.created_at DESC
		LIMIT $5`,
		campus, text, "%"+escapeLike(text)+"%", q.Category, market.ExploreLimit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return scanPosts(rows)
}

// ListByUser returns every post of a profile, newest first.
func (d *DB) ListByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := d.Db.QueryContext(ctx, postSelect+`
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return scanPosts(rows)
}

// ListLiked returns the posts a user liked, most recent like first.
func (d *DB) ListLiked(ctx context.Context, userID string) ([]Post, error) {
	rows, err := d.Db.QueryContext(ctx, postSelect+`
		JOIN likes l ON l.post_id = p.id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked posts: %w", err)
	}
	return scanPosts(rows)
}

// ListSaved returns the posts a user saved, most recent save first.
func (d *DB) ListSaved(ctx context.Context, userID string) ([]Post, error) {
	rows, err := d.Db.QueryContext(ctx, postSelect+`
		JOIN saved_posts sp ON sp.post_id = p.id
		WHERE sp.user_id = $1
		ORDER BY sp.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return scanPosts(rows)
}
