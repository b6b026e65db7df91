package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
	"github.com/envelope-app/segora-backend/realtime"
)

// OpenChat finds or creates the chat between the caller and another user.
func OpenChat() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req OpenChatRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		other, err := uuid.Parse(strings.TrimSpace(req.OtherUserID))
		if err != nil {
			return handleMissingDataError("other_user_id")
		}

		chat, created, err := rc.store.FindOrCreateChat(r.Context(), rc.userID, other.String())
		if err != nil {
			if errors.Is(err, db.ErrSelfChat) {
				return invalidData(err)
			}
			return storeError(err, "User")
		}

		resp := &ChatResponse{Chat: *chat}
		if peer, err := rc.store.GetProfile(r.Context(), other.String()); err == nil {
			resp.OtherUser = &db.ChatPeer{ID: peer.ID, Name: peer.Name, AvatarURL: peer.AvatarURL}
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		return writeJSON(w, status, resp)
	}
}

func ListChats() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chats, err := rc.store.ListChats(r.Context(), rc.userID)
		if err != nil {
			return storeError(err, "Chat")
		}
		return writeJSON(w, http.StatusOK, &ChatsResponse{Chats: chats})
	}
}

// memberChat loads the chat named in the path and checks the caller takes
// part in it.
func memberChat(rc *RouterContext, r *http.Request) (*db.Chat, *HTTPError) {
	id, e := pathID(r, "id", "Chat")
	if e != nil {
		return nil, e
	}
	chat, err := rc.store.GetChat(r.Context(), id)
	if err != nil {
		return nil, storeError(err, "Chat")
	}
	if chat.ParticipantOne != rc.userID && chat.ParticipantTwo != rc.userID {
		return nil, forbidden("You are not part of this chat")
	}
	return chat, nil
}

func GetChat() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chat, e := memberChat(rc, r)
		if e != nil {
			return e
		}
		resp := &ChatResponse{Chat: *chat}
		otherID := market.OtherParticipant(chat.ParticipantOne, chat.ParticipantTwo, rc.userID)
		peer, err := rc.store.GetProfile(r.Context(), otherID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return storeError(err, "Profile")
		}
		if peer != nil {
			resp.OtherUser = &db.ChatPeer{ID: peer.ID, Name: peer.Name, AvatarURL: peer.AvatarURL}
		}
		return writeJSON(w, http.StatusOK, resp)
	}
}

func messageView(m db.Message) MessageView {
	v := MessageView{Message: m}
	if o, err := market.ParseOffer(m.Content); err == nil {
		v.Offer = &o
	}
	return v
}

// ListMessages returns the chat history oldest first, offers decoded.
func ListMessages() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chat, e := memberChat(rc, r)
		if e != nil {
			return e
		}
		msgs, err := rc.store.ListMessages(r.Context(), chat.ID)
		if err != nil {
			return storeError(err, "Chat")
		}
		views := make([]MessageView, 0, len(msgs))
		for _, m := range msgs {
			views = append(views, messageView(m))
		}
		return writeJSON(w, http.StatusOK, &MessagesResponse{Messages: views})
	}
}

func send(rc *RouterContext, w http.ResponseWriter, r *http.Request, chatID, content string) *HTTPError {
	m, err := rc.store.InsertMessage(r.Context(), chatID, rc.userID, content)
	if err != nil {
		return storeError(err, "Chat")
	}
	return writeJSON(w, http.StatusCreated, messageView(*m))
}

func SendMessage() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chat, e := memberChat(rc, r)
		if e != nil {
			return e
		}
		var req SendMessageRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		content, err := market.CleanMessage(req.Content)
		if errors.Is(err, market.ErrEmptyMessage) {
			return handleMissingDataError("content")
		}
		if err != nil {
			return invalidData(err)
		}
		return send(rc, w, r, chat.ID, content)
	}
}

// SendOffer posts a pending price offer into the chat.
func SendOffer() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chat, e := memberChat(rc, r)
		if e != nil {
			return e
		}
		var req OfferRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		amount, err := market.ParseAmount(req.Amount)
		if err != nil {
			return invalidData(err)
		}
		return send(rc, w, r, chat.ID, market.EncodeOffer(amount, market.OfferPending))
	}
}

// RespondToOffer answers an offer with an accept or reject reply. The offer
// message itself stays as it was.
func RespondToOffer() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chat, e := memberChat(rc, r)
		if e != nil {
			return e
		}
		msgID, e := pathID(r, "messageId", "Message")
		if e != nil {
			return e
		}
		var req RespondRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		status, err := market.ParseResponse(req.Status)
		if err != nil {
			return invalidData(err)
		}

		m, err := rc.store.GetMessage(r.Context(), chat.ID, msgID)
		if err != nil {
			return storeError(err, "Message")
		}
		offer, err := market.ParseOffer(m.Content)
		if err != nil {
			return invalidData(err)
		}
		if m.SenderID == rc.userID {
			return forbidden("You cannot answer your own offer")
		}
		return send(rc, w, r, chat.ID, market.ReplyTo(offer, status))
	}
}

// ChatStream pushes the chat's new messages over a WebSocket.
func ChatStream() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		chat, e := memberChat(rc, r)
		if e != nil {
			return e
		}
		if err := rc.hub.Serve(w, r, realtime.ChatTopic(chat.ID), nil); err != nil {
			return &HTTPError{IError: err, Level: 2}
		}
		return nil
	}
}
