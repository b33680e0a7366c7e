package puppet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

type opCase struct {
	method string
	call   func(ctx context.Context, a *Adapter) (interface{}, error)
}

func domainOps() []opCase {
	file := schemas.FileBox{Name: "a.png"}
	link := schemas.URLLinkPayload{Title: "t", URL: "https://example.com"}
	mp := schemas.MiniProgramPayload{AppID: "wx1"}

	return []opCase{
		{"contactSelfQRCode", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ContactSelfQRCode(ctx) }},
		{"contactSelfName", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.ContactSelfName(ctx, "n") }},
		{"contactSelfSignature", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.ContactSelfSignature(ctx, "s") }},
		{"contactAlias", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ContactAlias(ctx, "c", nil) }},
		{"contactAlias", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.ContactAliasClear(ctx, "c") }},
		{"contactPhone", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ContactPhone(ctx, "c", nil) }},
		{"contactCorporationRemark", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return nil, a.ContactCorporationRemark(ctx, "c", nil)
		}},
		{"contactDescription", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.ContactDescription(ctx, "c", nil) }},
		{"contactList", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ContactList(ctx) }},
		{"contactAvatar", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ContactAvatar(ctx, "c", nil) }},
		{"contactRawPayload", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ContactRawPayload(ctx, "c") }},
		{"conversationReadMark", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.ConversationReadMark(ctx, "c", nil) }},
		{"messageContact", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageContact(ctx, "m") }},
		{"messageImage", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.MessageImage(ctx, "m", schemas.ImageTypeHD)
		}},
		{"messageRecall", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageRecall(ctx, "m") }},
		{"messageFile", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageFile(ctx, "m") }},
		{"messageUrl", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageURL(ctx, "m") }},
		{"messageMiniProgram", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageMiniProgram(ctx, "m") }},
		{"messageRawPayload", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageRawPayload(ctx, "m") }},
		{"messageSendText", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageSendText(ctx, "c", "hi") }},
		{"messageSendFile", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageSendFile(ctx, "c", file) }},
		{"messageSendContact", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageSendContact(ctx, "c", "d") }},
		{"messageSendUrl", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageSendURL(ctx, "c", link) }},
		{"messageSendMiniProgram", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.MessageSendMiniProgram(ctx, "c", mp)
		}},
		{"messageForward", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.MessageForward(ctx, "c", "m") }},
		{"roomRawPayload", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomRawPayload(ctx, "r") }},
		{"roomList", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomList(ctx) }},
		{"roomDel", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.RoomDel(ctx, "r", "c") }},
		{"roomAvatar", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomAvatar(ctx, "r") }},
		{"roomAdd", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.RoomAdd(ctx, "r", "c") }},
		{"roomTopic", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomTopic(ctx, "r", nil) }},
		{"roomCreate", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.RoomCreate(ctx, []string{"x"}, "topic")
		}},
		{"roomQuit", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.RoomQuit(ctx, "r") }},
		{"roomQRCode", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomQRCode(ctx, "r") }},
		{"roomMemberList", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomMemberList(ctx, "r") }},
		{"roomMemberRawPayload", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.RoomMemberRawPayload(ctx, "r", "c")
		}},
		{"roomAnnounce", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.RoomAnnounce(ctx, "r", nil) }},
		{"roomInvitationAccept", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.RoomInvitationAccept(ctx, "i") }},
		{"roomInvitationRawPayload", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.RoomInvitationRawPayload(ctx, "i")
		}},
		{"roomInvitationRawPayloadParser", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.RoomInvitationRawPayloadParser(ctx, map[string]interface{}{"id": "i"})
		}},
		{"friendshipRawPayload", func(ctx context.Context, a *Adapter) (interface{}, error) { return a.FriendshipRawPayload(ctx, "f") }},
		{"friendshipSearchPhone", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.FriendshipSearchPhone(ctx, "13800000000")
		}},
		{"friendshipSearchWeixin", func(ctx context.Context, a *Adapter) (interface{}, error) {
			return a.FriendshipSearchWeixin(ctx, "wx")
		}},
		{"friendshipAdd", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.FriendshipAdd(ctx, "c", "hello") }},
		{"friendshipAccept", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.FriendshipAccept(ctx, "f") }},
		{"ding", func(ctx context.Context, a *Adapter) (interface{}, error) { return nil, a.Ding(ctx, "") }},
	}
}

func TestAdapter_MissingOperationsAreUnsupported(t *testing.T) {
	a, _ := newTestAdapter(t, newFakeHandle())

	for _, tc := range domainOps() {
		t.Run(tc.method, func(t *testing.T) {
			_, err := tc.call(context.Background(), a)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupported)

			var unsupported *UnsupportedError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tc.method, unsupported.Operation)
		})
	}
}

func TestAdapter_ForwardsToEveryOperation(t *testing.T) {
	for _, tc := range domainOps() {
		t.Run(tc.method, func(t *testing.T) {
			h := newFakeHandle()
			called := false
			h.define(tc.method, func(context.Context, ...interface{}) (interface{}, error) {
				called = true
				return nil, nil
			})
			a, _ := newTestAdapter(t, h)

			_, err := tc.call(context.Background(), a)
			require.NoError(t, err)
			assert.True(t, called)
		})
	}
}

func TestAdapter_ForwardsArgumentsUnchanged(t *testing.T) {
	file := schemas.FileBox{Name: "a.png", Base64: "aGk="}
	link := schemas.URLLinkPayload{Title: "t", URL: "https://example.com"}

	tests := []struct {
		name   string
		method string
		call   func(ctx context.Context, a *Adapter) error
		want   []interface{}
	}{
		{
			name:   "alias get",
			method: "contactAlias",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.ContactAlias(ctx, "c1", nil)
				return err
			},
			want: []interface{}{"c1"},
		},
		{
			name:   "alias set",
			method: "contactAlias",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.ContactAlias(ctx, "c1", ptr("Bob"))
				return err
			},
			want: []interface{}{"c1", "Bob"},
		},
		{
			name:   "alias clear",
			method: "contactAlias",
			call: func(ctx context.Context, a *Adapter) error {
				return a.ContactAliasClear(ctx, "c1")
			},
			want: []interface{}{"c1", nil},
		},
		{
			name:   "phone get",
			method: "contactPhone",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.ContactPhone(ctx, "c1", nil)
				return err
			},
			want: []interface{}{"c1"},
		},
		{
			name:   "phone set",
			method: "contactPhone",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.ContactPhone(ctx, "c1", []string{"123"})
				return err
			},
			want: []interface{}{"c1", []string{"123"}},
		},
		{
			name:   "corporation remark cleared",
			method: "contactCorporationRemark",
			call: func(ctx context.Context, a *Adapter) error {
				return a.ContactCorporationRemark(ctx, "c1", nil)
			},
			want: []interface{}{"c1", nil},
		},
		{
			name:   "description set",
			method: "contactDescription",
			call: func(ctx context.Context, a *Adapter) error {
				return a.ContactDescription(ctx, "c1", ptr("vip"))
			},
			want: []interface{}{"c1", "vip"},
		},
		{
			name:   "avatar set",
			method: "contactAvatar",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.ContactAvatar(ctx, "c1", &file)
				return err
			},
			want: []interface{}{"c1", file},
		},
		{
			name:   "read mark set",
			method: "conversationReadMark",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.ConversationReadMark(ctx, "c1", ptr(true))
				return err
			},
			want: []interface{}{"c1", true},
		},
		{
			name:   "image",
			method: "messageImage",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.MessageImage(ctx, "m1", schemas.ImageTypeArtwork)
				return err
			},
			want: []interface{}{"m1", schemas.ImageTypeArtwork},
		},
		{
			name:   "send text",
			method: "messageSendText",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.MessageSendText(ctx, "room@chatroom", "hello")
				return err
			},
			want: []interface{}{"room@chatroom", "hello"},
		},
		{
			name:   "send url",
			method: "messageSendUrl",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.MessageSendURL(ctx, "c1", link)
				return err
			},
			want: []interface{}{"c1", link},
		},
		{
			name:   "room create",
			method: "roomCreate",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.RoomCreate(ctx, []string{"a", "b"}, "topic")
				return err
			},
			want: []interface{}{[]string{"a", "b"}, "topic"},
		},
		{
			name:   "announce get",
			method: "roomAnnounce",
			call: func(ctx context.Context, a *Adapter) error {
				_, err := a.RoomAnnounce(ctx, "r1", nil)
				return err
			},
			want: []interface{}{"r1"},
		},
		{
			name:   "friendship add",
			method: "friendshipAdd",
			call: func(ctx context.Context, a *Adapter) error {
				return a.FriendshipAdd(ctx, "c1", "hi there")
			},
			want: []interface{}{"c1", "hi there"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHandle()
			got := h.returning(tt.method, nil)
			a, _ := newTestAdapter(t, h)

			require.NoError(t, tt.call(context.Background(), a))
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestAdapter_ContactListScenario(t *testing.T) {
	h := newFakeHandle()
	h.returning("contactList", []string{"a", "b"})
	a, _ := newTestAdapter(t, h)

	got, err := a.ContactList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestAdapter_RoomCreateUnsupportedScenario(t *testing.T) {
	h := newFakeHandle()
	h.returning("roomList", []string{"r"})
	a, _ := newTestAdapter(t, h)

	_, err := a.RoomCreate(context.Background(), []string{"x"}, "topic")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestAdapter_ReturnsResultUnchanged(t *testing.T) {
	h := newFakeHandle()
	avatar := &schemas.FileBox{Name: "avatar.jpg"}
	h.returning("contactAvatar", avatar)
	h.returning("messageRecall", true)
	h.returning("roomQRCode", "qr://room")
	a, _ := newTestAdapter(t, h)
	ctx := context.Background()

	gotAvatar, err := a.ContactAvatar(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Same(t, avatar, gotAvatar)

	recalled, err := a.MessageRecall(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, recalled)

	qr, err := a.RoomQRCode(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "qr://room", qr)
}

func TestAdapter_DecodesGenericResults(t *testing.T) {
	h := newFakeHandle()
	h.returning("roomList", []interface{}{"r1", "r2"})
	h.returning("contactRawPayload", map[string]interface{}{
		"id":     "c1",
		"name":   "Alice",
		"gender": float64(2),
		"phone":  []interface{}{"123"},
	})
	h.returning("messageFile", map[string]interface{}{"name": "a.txt", "base64": "aGk="})
	h.returning("messageContact", map[string]interface{}{"nested": true})
	a, _ := newTestAdapter(t, h)
	ctx := context.Background()

	rooms, err := a.RoomList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, rooms)

	contact, err := a.ContactRawPayload(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, schemas.ContactPayload{
		ID:     "c1",
		Name:   "Alice",
		Gender: schemas.ContactGenderFemale,
		Phone:  []string{"123"},
	}, contact)

	fb, err := a.MessageFile(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "a.txt", fb.Name)

	_, err = a.MessageContact(ctx, "m1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected result type")
	assert.False(t, IsUnsupported(err))
}

func TestAdapter_ForwardedErrorsPropagateVerbatim(t *testing.T) {
	boom := errors.New("client refused")
	h := newFakeHandle()
	h.define("roomQuit", func(context.Context, ...interface{}) (interface{}, error) { return nil, boom })
	a, _ := newTestAdapter(t, h)

	err := a.RoomQuit(context.Background(), "r1")
	assert.Same(t, boom, err)
}

func TestAdapter_ResolvesEveryCall(t *testing.T) {
	h := newFakeHandle()
	a, _ := newTestAdapter(t, h)
	ctx := context.Background()

	_, err := a.RoomList(ctx)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, a.Supports("roomList"))

	h.returning("roomList", []string{"r"})
	rooms, err := a.RoomList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, rooms)
	assert.True(t, a.Supports("roomList"))
}

func TestAdapter_IdentityParsersIgnoreHandle(t *testing.T) {
	h := newFakeHandle()
	a, _ := newTestAdapter(t, h)
	ctx := context.Background()
	require.True(t, a.IsOff())

	contact := schemas.ContactPayload{ID: "c1", Name: "Alice"}
	gotContact, err := a.ContactRawPayloadParser(ctx, contact)
	require.NoError(t, err)
	assert.Equal(t, contact, gotContact)

	message := schemas.MessagePayload{ID: "m1", Text: "hi"}
	gotMessage, err := a.MessageRawPayloadParser(ctx, message)
	require.NoError(t, err)
	assert.Equal(t, message, gotMessage)

	room := schemas.RoomPayload{ID: "r1", Topic: "t"}
	gotRoom, err := a.RoomRawPayloadParser(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, room, gotRoom)

	member := schemas.RoomMemberPayload{ID: "c1", RoomAlias: "al"}
	gotMember, err := a.RoomMemberRawPayloadParser(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, member, gotMember)

	friendship, err := a.FriendshipRawPayloadParser(ctx, map[string]interface{}{"id": "f1", "contactId": "c1", "hello": "hi"})
	require.NoError(t, err)
	assert.Equal(t, schemas.FriendshipPayload{ID: "f1", ContactID: "c1", Hello: "hi"}, friendship)

	_, _, lookups := h.counts()
	assert.Zero(t, lookups)
}

func TestAdapter_TagsAlwaysSucceed(t *testing.T) {
	h := newFakeHandle()
	a, _ := newTestAdapter(t, h)
	ctx := context.Background()

	assert.NoError(t, a.TagContactAdd(ctx, "t1", "c1"))
	assert.NoError(t, a.TagContactRemove(ctx, "t1", "c1"))
	assert.NoError(t, a.TagContactDelete(ctx, "t1"))

	tags, err := a.TagContactList(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)

	tags, err = a.TagContactList(ctx, ptr("c1"))
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, _, lookups := h.counts()
	assert.Zero(t, lookups)
}

func TestAdapter_RoomTopicSetDirtiesRoomPayload(t *testing.T) {
	h := newFakeHandle()
	fetches := 0
	h.define("roomRawPayload", func(_ context.Context, args ...interface{}) (interface{}, error) {
		fetches++
		return schemas.RoomPayload{ID: args[0].(string), Topic: "old"}, nil
	})
	h.returning("roomTopic", nil)
	a, em := newTestAdapter(t, h)
	ctx := context.Background()

	_, err := a.RoomPayload(ctx, "r1")
	require.NoError(t, err)
	_, err = a.RoomPayload(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)

	_, err = a.RoomTopic(ctx, "r1", nil)
	require.NoError(t, err)
	_, err = a.RoomPayload(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Empty(t, em.ofType(events.PuppetDirty))

	_, err = a.RoomTopic(ctx, "r1", ptr("new"))
	require.NoError(t, err)
	_, err = a.RoomPayload(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)

	dirty := em.ofType(events.PuppetDirty)
	require.Len(t, dirty, 1)
	assert.Equal(t, "room", dirty[0].Data["payload_type"])
	assert.Equal(t, "r1", dirty[0].Data["payload_id"])
}

func TestAdapter_RoomTopicEmptyKeepsCache(t *testing.T) {
	h := newFakeHandle()
	fetches := 0
	h.define("roomRawPayload", func(_ context.Context, args ...interface{}) (interface{}, error) {
		fetches++
		return schemas.RoomPayload{ID: args[0].(string), Topic: "old"}, nil
	})
	args := h.returning("roomTopic", nil)
	a, em := newTestAdapter(t, h)
	ctx := context.Background()

	_, err := a.RoomPayload(ctx, "r1")
	require.NoError(t, err)

	_, err = a.RoomTopic(ctx, "r1", ptr(""))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"r1", ""}, *args)

	_, err = a.RoomPayload(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Empty(t, em.ofType(events.PuppetDirty))
}

func TestAdapter_RoomTopicFailureKeepsCache(t *testing.T) {
	h := newFakeHandle()
	h.returning("roomRawPayload", schemas.RoomPayload{ID: "r1"})
	h.define("roomTopic", func(context.Context, ...interface{}) (interface{}, error) {
		return nil, errors.New("not owner")
	})
	a, em := newTestAdapter(t, h)
	ctx := context.Background()

	_, err := a.RoomPayload(ctx, "r1")
	require.NoError(t, err)
	_, err = a.RoomTopic(ctx, "r1", ptr("new"))
	require.Error(t, err)

	assert.Equal(t, 1, a.cache.rooms.len())
	assert.Empty(t, em.ofType(events.PuppetDirty))
}

func TestAdapter_DirtyRoomMembers(t *testing.T) {
	h := newFakeHandle()
	fetches := 0
	h.define("roomMemberRawPayload", func(_ context.Context, args ...interface{}) (interface{}, error) {
		fetches++
		return schemas.RoomMemberPayload{ID: args[1].(string)}, nil
	})
	a, _ := newTestAdapter(t, h)
	ctx := context.Background()

	for _, c := range []string{"c1", "c2", "c1"} {
		_, err := a.RoomMemberPayload(ctx, "r1", c)
		require.NoError(t, err)
	}
	_, err := a.RoomMemberPayload(ctx, "r2", "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, fetches)

	require.NoError(t, a.DirtyPayload(ctx, schemas.PayloadTypeRoomMember, "r1"))
	assert.Equal(t, 1, a.cache.roomMembers.len())

	assert.Error(t, a.DirtyPayload(ctx, schemas.PayloadTypeUnknown, "x"))
}

func TestAdapter_PayloadGettersPropagateErrors(t *testing.T) {
	a, _ := newTestAdapter(t, newFakeHandle())
	ctx := context.Background()

	_, err := a.ContactPayload(ctx, "c1")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = a.MessagePayload(ctx, "m1")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = a.FriendshipPayload(ctx, "f1")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = a.RoomInvitationPayload(ctx, "i1")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, 0, a.cache.contacts.len())
}

func TestAdapter_RoomInvitationParserIsForwarded(t *testing.T) {
	h := newFakeHandle()
	raw := map[string]interface{}{"id": "i1", "topic": "Friends", "memberCount": 3}
	h.returning("roomInvitationRawPayload", raw)
	got := h.returning("roomInvitationRawPayloadParser", schemas.RoomInvitationPayload{ID: "i1", Topic: "Friends", MemberCount: 3})
	a, _ := newTestAdapter(t, h)

	p, err := a.RoomInvitationPayload(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "Friends", p.Topic)
	assert.Equal(t, []interface{}{raw}, *got)
}
