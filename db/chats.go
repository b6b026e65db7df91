package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/envelope-app/segora-backend/market"
)

const chatColumns = `id, participant_one, participant_two, last_message, last_message_time, created_at`

func scanChat(s scanner) (*Chat, error) {
	var (
		c        Chat
		lastMsg  sql.NullString
		lastTime sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.ParticipantOne, &c.ParticipantTwo, &lastMsg, &lastTime, &c.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	c.LastMessage = nullString(lastMsg)
	if lastTime.Valid {
		t := lastTime.Time
		c.LastMessageTime = &t
	}
	return &c, nil
}

func (d *DB) chatByPair(ctx context.Context, one, two string) (*Chat, error) {
	row := d.Db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE participant_one = $1 AND participant_two = $2`, one, two)
	return scanChat(row)
}

// FindOrCreateChat returns the single chat between me and other, creating it
// on first contact. created reports whether a new row was inserted.
func (d *DB) FindOrCreateChat(ctx context.Context, me, other string) (chat *Chat, created bool, err error) {
	one, two, err := market.CanonicalPair(me, other)
	if err != nil {
		return nil, false, err
	}

	chat, err = d.chatByPair(ctx, one, two)
	if err == nil {
		return chat, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("find chat: %w", err)
	}

	row := d.Db.QueryRowContext(ctx, `
		INSERT INTO chats (participant_one, participant_two) VALUES ($1, $2)
		ON CONFLICT (participant_one, participant_two) DO NOTHING
		RETURNING `+chatColumns, one, two)
	chat, err = scanChat(row)
	switch {
	case err == nil:
		return chat, true, nil
	case errors.Is(err, ErrNotFound):
		// lost a race with the other participant
		chat, err = d.chatByPair(ctx, one, two)
		if err != nil {
			return nil, false, fmt.Errorf("find chat after conflict: %w", err)
		}
		return chat, false, nil
	case isForeignKeyViolation(err):
		return nil, false, ErrNotFound
	}
	return nil, false, fmt.Errorf("create chat: %w", err)
}

func (d *DB) GetChat(ctx context.Context, id string) (*Chat, error) {
	row := d.Db.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id)
	return scanChat(row)
}

// ListChats returns the user's chats, most recently active first, with the
// other participant joined in.
func (d *DB) ListChats(ctx context.Context, userID string) ([]ChatSummary, error) {
	rows, err := d.Db.QueryContext(ctx, `
		SELECT c.id, c.participant_one, c.participant_two, c.last_message, c.last_message_time, c.created_at,
			pr.id, pr.name, pr.avatar_url
		FROM chats c
		JOIN profiles pr ON pr.id = CASE WHEN c.participant_one = $1 THEN c.participant_two ELSE c.participant_one END
		WHERE c.participant_one = $1 OR c.participant_two = $1
		ORDER BY c.last_message_time DESC NULLS LAST, c.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	out := []ChatSummary{}
	for rows.Next() {
		var (
			s        ChatSummary
			lastMsg  sql.NullString
			lastTime sql.NullTime
			avatar   sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.ParticipantOne, &s.ParticipantTwo, &lastMsg, &lastTime, &s.CreatedAt,
			&s.OtherUser.ID, &s.OtherUser.Name, &avatar); err != nil {
			return nil, err
		}
		s.LastMessage = nullString(lastMsg)
		if lastTime.Valid {
			t := lastTime.Time
			s.LastMessageTime = &t
		}
		s.OtherUser.AvatarURL = nullString(avatar)
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertMessage stores a message and refreshes the chat's preview.
func (d *DB) InsertMessage(ctx context.Context, chatID, senderID, content string) (*Message, error) {
	m := &Message{ChatID: chatID, SenderID: senderID, Content: content}
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
			RETURNING id, created_at`, chatID, senderID, content).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert message: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE chats SET last_message = $2, last_message_time = $3 WHERE id = $1`,
			chatID, market.Preview(content), m.CreatedAt)
		if err != nil {
			return fmt.Errorf("update chat preview: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns a chat's messages oldest first.
func (d *DB) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := d.Db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, content, created_at FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) GetMessage(ctx context.Context, chatID, messageID string) (*Message, error) {
	var m Message
	err := d.Db.QueryRowContext(ctx, `
		SELECT id, chat_id, sender_id, content, created_at FROM messages
		WHERE id = $1 AND chat_id = $2`, messageID, chatID).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}
