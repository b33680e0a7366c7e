package puppet

import (
	"context"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

// Puppet is the contract a host framework drives a puppet through.
type Puppet interface {
	Lifecycle
	Contacts
	Messages
	Rooms
	Friendships
	Tags
	Payloads
}

// Lifecycle covers start, stop and login state.
type Lifecycle interface {
	Name() string
	Version() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	State() State
	Ready(ctx context.Context, state State) error
	Login(ctx context.Context, contactID string) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	SelfID() string
	Ding(ctx context.Context, data string) error
}

type Contacts interface {
	ContactSelfQRCode(ctx context.Context) (string, error)
	ContactSelfName(ctx context.Context, name string) error
	ContactSelfSignature(ctx context.Context, signature string) error
	ContactAlias(ctx context.Context, contactID string, alias *string) (string, error)
	ContactAliasClear(ctx context.Context, contactID string) error
	ContactPhone(ctx context.Context, contactID string, phones []string) ([]string, error)
	ContactCorporationRemark(ctx context.Context, contactID string, remark *string) error
	ContactDescription(ctx context.Context, contactID string, description *string) error
	ContactList(ctx context.Context) ([]string, error)
	ContactAvatar(ctx context.Context, contactID string, file *schemas.FileBox) (*schemas.FileBox, error)
	ContactRawPayload(ctx context.Context, contactID string) (schemas.ContactPayload, error)
	ContactRawPayloadParser(ctx context.Context, payload schemas.ContactPayload) (schemas.ContactPayload, error)
}

type Messages interface {
	ConversationReadMark(ctx context.Context, conversationID string, hasRead *bool) (bool, error)
	MessageContact(ctx context.Context, messageID string) (string, error)
	MessageImage(ctx context.Context, messageID string, imageType schemas.ImageType) (*schemas.FileBox, error)
	MessageRecall(ctx context.Context, messageID string) (bool, error)
	MessageFile(ctx context.Context, messageID string) (*schemas.FileBox, error)
	MessageURL(ctx context.Context, messageID string) (schemas.URLLinkPayload, error)
	MessageMiniProgram(ctx context.Context, messageID string) (schemas.MiniProgramPayload, error)
	MessageRawPayload(ctx context.Context, messageID string) (schemas.MessagePayload, error)
	MessageRawPayloadParser(ctx context.Context, payload schemas.MessagePayload) (schemas.MessagePayload, error)
	MessageSendText(ctx context.Context, conversationID, text string) (string, error)
	MessageSendFile(ctx context.Context, conversationID string, file schemas.FileBox) (string, error)
	MessageSendContact(ctx context.Context, conversationID, contactID string) (string, error)
	MessageSendURL(ctx context.Context, conversationID string, link schemas.URLLinkPayload) (string, error)
	MessageSendMiniProgram(ctx context.Context, conversationID string, mp schemas.MiniProgramPayload) (string, error)
	MessageForward(ctx context.Context, conversationID, messageID string) (string, error)
}

type Rooms interface {
	RoomRawPayload(ctx context.Context, roomID string) (schemas.RoomPayload, error)
	RoomRawPayloadParser(ctx context.Context, payload schemas.RoomPayload) (schemas.RoomPayload, error)
	RoomList(ctx context.Context) ([]string, error)
	RoomDel(ctx context.Context, roomID, contactID string) error
	RoomAvatar(ctx context.Context, roomID string) (*schemas.FileBox, error)
	RoomAdd(ctx context.Context, roomID, contactID string) error
	RoomTopic(ctx context.Context, roomID string, topic *string) (string, error)
	RoomCreate(ctx context.Context, contactIDs []string, topic string) (string, error)
	RoomQuit(ctx context.Context, roomID string) error
	RoomQRCode(ctx context.Context, roomID string) (string, error)
	RoomMemberList(ctx context.Context, roomID string) ([]string, error)
	RoomMemberRawPayload(ctx context.Context, roomID, contactID string) (schemas.RoomMemberPayload, error)
	RoomMemberRawPayloadParser(ctx context.Context, payload schemas.RoomMemberPayload) (schemas.RoomMemberPayload, error)
	RoomAnnounce(ctx context.Context, roomID string, text *string) (string, error)
	RoomInvitationAccept(ctx context.Context, invitationID string) error
	RoomInvitationRawPayload(ctx context.Context, invitationID string) (interface{}, error)
	RoomInvitationRawPayloadParser(ctx context.Context, raw interface{}) (schemas.RoomInvitationPayload, error)
}

type Friendships interface {
	FriendshipRawPayload(ctx context.Context, friendshipID string) (interface{}, error)
	FriendshipRawPayloadParser(ctx context.Context, raw interface{}) (schemas.FriendshipPayload, error)
	FriendshipSearchPhone(ctx context.Context, phone string) (string, error)
	FriendshipSearchWeixin(ctx context.Context, weixin string) (string, error)
	FriendshipAdd(ctx context.Context, contactID, hello string) error
	FriendshipAccept(ctx context.Context, friendshipID string) error
}

type Tags interface {
	TagContactAdd(ctx context.Context, tagID, contactID string) error
	TagContactRemove(ctx context.Context, tagID, contactID string) error
	TagContactDelete(ctx context.Context, tagID string) error
	TagContactList(ctx context.Context, contactID *string) ([]string, error)
}

// Payloads are the cached payload getters.
type Payloads interface {
	ContactPayload(ctx context.Context, contactID string) (schemas.ContactPayload, error)
	MessagePayload(ctx context.Context, messageID string) (schemas.MessagePayload, error)
	RoomPayload(ctx context.Context, roomID string) (schemas.RoomPayload, error)
	RoomMemberPayload(ctx context.Context, roomID, contactID string) (schemas.RoomMemberPayload, error)
	FriendshipPayload(ctx context.Context, friendshipID string) (schemas.FriendshipPayload, error)
	RoomInvitationPayload(ctx context.Context, invitationID string) (schemas.RoomInvitationPayload, error)
	DirtyPayload(ctx context.Context, typ schemas.PayloadType, id string) error
}

var _ Puppet = (*Adapter)(nil)
