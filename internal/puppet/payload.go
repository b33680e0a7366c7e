package puppet

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

type store[T any] struct {
	mu sync.RWMutex
	m  map[string]T
}

func newStore[T any]() *store[T] {
	return &store[T]{m: make(map[string]T)}
}

func (s *store[T]) get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[id]
	return v, ok
}

func (s *store[T]) put(id string, v T) {
	s.mu.Lock()
	s.m[id] = v
	s.mu.Unlock()
}

func (s *store[T]) drop(id string) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

// dropPrefix removes every entry whose key starts with prefix.
func (s *store[T]) dropPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.m {
		if strings.HasPrefix(id, prefix) {
			delete(s.m, id)
		}
	}
}

func (s *store[T]) reset() {
	s.mu.Lock()
	s.m = make(map[string]T)
	s.mu.Unlock()
}

func (s *store[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// payloadCache caches parsed payloads per type.
type payloadCache struct {
	contacts    *store[schemas.ContactPayload]
	messages    *store[schemas.MessagePayload]
	rooms       *store[schemas.RoomPayload]
	roomMembers *store[schemas.RoomMemberPayload]
	friendships *store[schemas.FriendshipPayload]
	invitations *store[schemas.RoomInvitationPayload]
}

func newPayloadCache() *payloadCache {
	return &payloadCache{
		contacts:    newStore[schemas.ContactPayload](),
		messages:    newStore[schemas.MessagePayload](),
		rooms:       newStore[schemas.RoomPayload](),
		roomMembers: newStore[schemas.RoomMemberPayload](),
		friendships: newStore[schemas.FriendshipPayload](),
		invitations: newStore[schemas.RoomInvitationPayload](),
	}
}

func (c *payloadCache) clear() {
	c.contacts.reset()
	c.messages.reset()
	c.rooms.reset()
	c.roomMembers.reset()
	c.friendships.reset()
	c.invitations.reset()
}

// roomMemberKey groups members under their room so a room can be dirtied
// as a whole.
func roomMemberKey(roomID, contactID string) string {
	return roomID + "\x00" + contactID
}

// DirtyPayload drops the cached payload of type typ under id and emits a
// dirty event. For room members id is the room id and every cached member
// of that room is dropped.
func (a *Adapter) DirtyPayload(ctx context.Context, typ schemas.PayloadType, id string) error {
	_, err := local(ctx, a, "dirtyPayload", []interface{}{typ, id}, func() (struct{}, error) {
		switch typ {
		case schemas.PayloadTypeContact:
			a.cache.contacts.drop(id)
		case schemas.PayloadTypeMessage:
			a.cache.messages.drop(id)
		case schemas.PayloadTypeRoom:
			a.cache.rooms.drop(id)
		case schemas.PayloadTypeRoomMember:
			a.cache.roomMembers.dropPrefix(roomMemberKey(id, ""))
		case schemas.PayloadTypeFriendship:
			a.cache.friendships.drop(id)
		case schemas.PayloadTypeRoomInvitation:
			a.cache.invitations.drop(id)
		default:
			return struct{}{}, fmt.Errorf("dirty payload: unknown payload type %s", typ)
		}
		a.emitter.Emit(ctx, events.PuppetDirty, map[string]interface{}{
			"payload_type": typ.String(),
			"payload_id":   id,
		})
		return struct{}{}, nil
	})
	return err
}

// ContactPayload returns the parsed payload of contact id, fetching it from
// the sidecar on a cache miss.
func (a *Adapter) ContactPayload(ctx context.Context, id string) (schemas.ContactPayload, error) {
	if p, ok := a.cache.contacts.get(id); ok {
		return p, nil
	}
	raw, err := a.ContactRawPayload(ctx, id)
	if err != nil {
		return schemas.ContactPayload{}, err
	}
	p, err := a.ContactRawPayloadParser(ctx, raw)
	if err != nil {
		return schemas.ContactPayload{}, err
	}
	a.cache.contacts.put(id, p)
	return p, nil
}

// MessagePayload returns the parsed payload of message id.
func (a *Adapter) MessagePayload(ctx context.Context, id string) (schemas.MessagePayload, error) {
	if p, ok := a.cache.messages.get(id); ok {
		return p, nil
	}
	raw, err := a.MessageRawPayload(ctx, id)
	if err != nil {
		return schemas.MessagePayload{}, err
	}
	p, err := a.MessageRawPayloadParser(ctx, raw)
	if err != nil {
		return schemas.MessagePayload{}, err
	}
	a.cache.messages.put(id, p)
	return p, nil
}

// RoomPayload returns the parsed payload of room id.
func (a *Adapter) RoomPayload(ctx context.Context, id string) (schemas.RoomPayload, error) {
	if p, ok := a.cache.rooms.get(id); ok {
		return p, nil
	}
	raw, err := a.RoomRawPayload(ctx, id)
	if err != nil {
		return schemas.RoomPayload{}, err
	}
	p, err := a.RoomRawPayloadParser(ctx, raw)
	if err != nil {
		return schemas.RoomPayload{}, err
	}
	a.cache.rooms.put(id, p)
	return p, nil
}

// RoomMemberPayload returns the parsed payload of contactID as a member of
// roomID.
func (a *Adapter) RoomMemberPayload(ctx context.Context, roomID, contactID string) (schemas.RoomMemberPayload, error) {
	key := roomMemberKey(roomID, contactID)
	if p, ok := a.cache.roomMembers.get(key); ok {
		return p, nil
	}
	raw, err := a.RoomMemberRawPayload(ctx, roomID, contactID)
	if err != nil {
		return schemas.RoomMemberPayload{}, err
	}
	p, err := a.RoomMemberRawPayloadParser(ctx, raw)
	if err != nil {
		return schemas.RoomMemberPayload{}, err
	}
	a.cache.roomMembers.put(key, p)
	return p, nil
}

// FriendshipPayload returns the parsed payload of friendship id.
func (a *Adapter) FriendshipPayload(ctx context.Context, id string) (schemas.FriendshipPayload, error) {
	if p, ok := a.cache.friendships.get(id); ok {
		return p, nil
	}
	raw, err := a.FriendshipRawPayload(ctx, id)
	if err != nil {
		return schemas.FriendshipPayload{}, err
	}
	p, err := a.FriendshipRawPayloadParser(ctx, raw)
	if err != nil {
		return schemas.FriendshipPayload{}, err
	}
	a.cache.friendships.put(id, p)
	return p, nil
}

// RoomInvitationPayload returns the parsed payload of room invitation id.
func (a *Adapter) RoomInvitationPayload(ctx context.Context, id string) (schemas.RoomInvitationPayload, error) {
	if p, ok := a.cache.invitations.get(id); ok {
		return p, nil
	}
	raw, err := a.RoomInvitationRawPayload(ctx, id)
	if err != nil {
		return schemas.RoomInvitationPayload{}, err
	}
	p, err := a.RoomInvitationRawPayloadParser(ctx, raw)
	if err != nil {
		return schemas.RoomInvitationPayload{}, err
	}
	a.cache.invitations.put(id, p)
	return p, nil
}
