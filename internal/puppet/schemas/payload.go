// Package schemas defines the payload shapes a puppet exchanges with its
// host: contacts, messages, rooms, invitations, friendships and the
// attachments carried by messages.
package schemas

import "fmt"

// PayloadType identifies one payload cache.
type PayloadType int

const (
	PayloadTypeUnknown PayloadType = iota
	PayloadTypeMessage
	PayloadTypeContact
	PayloadTypeRoom
	PayloadTypeRoomMember
	PayloadTypeFriendship
	PayloadTypeRoomInvitation
)

var payloadTypeNames = map[PayloadType]string{
	PayloadTypeUnknown:        "unknown",
	PayloadTypeMessage:        "message",
	PayloadTypeContact:        "contact",
	PayloadTypeRoom:           "room",
	PayloadTypeRoomMember:     "room_member",
	PayloadTypeFriendship:     "friendship",
	PayloadTypeRoomInvitation: "room_invitation",
}

func (t PayloadType) String() string {
	if name, ok := payloadTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PayloadType(%d)", int(t))
}

// ParsePayloadType maps a name produced by String back to its type.
func ParsePayloadType(name string) (PayloadType, error) {
	for t, n := range payloadTypeNames {
		if n == name && t != PayloadTypeUnknown {
			return t, nil
		}
	}
	return PayloadTypeUnknown, fmt.Errorf("unknown payload type %q", name)
}

// ImageType selects the rendition of an image message.
type ImageType int

const (
	ImageTypeUnknown ImageType = iota
	ImageTypeThumbnail
	ImageTypeHD
	ImageTypeArtwork
)

func (t ImageType) String() string {
	switch t {
	case ImageTypeThumbnail:
		return "thumbnail"
	case ImageTypeHD:
		return "hd"
	case ImageTypeArtwork:
		return "artwork"
	default:
		return "unknown"
	}
}

type ContactGender int

const (
	ContactGenderUnknown ContactGender = iota
	ContactGenderMale
	ContactGenderFemale
)

type ContactType int

const (
	ContactTypeUnknown ContactType = iota
	ContactTypeIndividual
	ContactTypeOfficial
	ContactTypeCorporation
)

// ContactPayload describes one contact.
type ContactPayload struct {
	ID          string        `json:"id"`
	Gender      ContactGender `json:"gender"`
	Type        ContactType   `json:"type"`
	Name        string        `json:"name"`
	Avatar      string        `json:"avatar"`
	Address     string        `json:"address,omitempty"`
	Alias       string        `json:"alias,omitempty"`
	City        string        `json:"city,omitempty"`
	Friend      bool          `json:"friend,omitempty"`
	Province    string        `json:"province,omitempty"`
	Signature   string        `json:"signature,omitempty"`
	Star        bool          `json:"star,omitempty"`
	Weixin      string        `json:"weixin,omitempty"`
	Corporation string        `json:"corporation,omitempty"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Coworker    bool          `json:"coworker,omitempty"`
	Phone       []string      `json:"phone,omitempty"`
}

type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeAttachment
	MessageTypeAudio
	MessageTypeContact
	MessageTypeChatHistory
	MessageTypeEmoticon
	MessageTypeImage
	MessageTypeText
	MessageTypeLocation
	MessageTypeMiniProgram
	MessageTypeGroupNote
	MessageTypeTransfer
	MessageTypeRedEnvelope
	MessageTypeRecalled
	MessageTypeURL
	MessageTypeVideo
)

// MessagePayload describes one message. A message is sent either to a room
// (RoomID set) or to a contact (ToID set).
type MessagePayload struct {
	ID            string      `json:"id"`
	Type          MessageType `json:"type"`
	Timestamp     int64       `json:"timestamp"`
	Text          string      `json:"text,omitempty"`
	FileName      string      `json:"filename,omitempty"`
	TalkerID      string      `json:"talkerId,omitempty"`
	ListenerID    string      `json:"listenerId,omitempty"`
	RoomID        string      `json:"roomId,omitempty"`
	MentionIDList []string    `json:"mentionIdList,omitempty"`
}

// RoomPayload describes one room.
type RoomPayload struct {
	ID           string   `json:"id"`
	Topic        string   `json:"topic"`
	Avatar       string   `json:"avatar,omitempty"`
	MemberIDList []string `json:"memberIdList"`
	OwnerID      string   `json:"ownerId,omitempty"`
	AdminIDList  []string `json:"adminIdList"`
}

// RoomMemberPayload describes a contact as a member of one room.
type RoomMemberPayload struct {
	ID        string `json:"id"`
	RoomAlias string `json:"roomAlias"`
	InviterID string `json:"inviterId"`
	Avatar    string `json:"avatar"`
	Name      string `json:"name"`
}

// RoomInvitationPayload describes an invitation to join a room.
type RoomInvitationPayload struct {
	ID           string   `json:"id"`
	InviterID    string   `json:"inviterId"`
	Topic        string   `json:"topic"`
	Avatar       string   `json:"avatar"`
	Invitation   string   `json:"invitation"`
	MemberCount  int      `json:"memberCount"`
	MemberIDList []string `json:"memberIdList"`
	Timestamp    int64    `json:"timestamp"`
	ReceiverID   string   `json:"receiverId"`
}

type FriendshipType int

const (
	FriendshipTypeUnknown FriendshipType = iota
	FriendshipTypeConfirm
	FriendshipTypeReceive
	FriendshipTypeVerify
)

// FriendshipPayload describes a friend request or its confirmation.
type FriendshipPayload struct {
	ID        string         `json:"id"`
	ContactID string         `json:"contactId"`
	Hello     string         `json:"hello,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Type      FriendshipType `json:"type"`
	Scene     int            `json:"scene,omitempty"`
	Stranger  string         `json:"stranger,omitempty"`
	Ticket    string         `json:"ticket,omitempty"`
}

// URLLinkPayload is a shared link card.
type URLLinkPayload struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// MiniProgramPayload is a shared mini program card.
type MiniProgramPayload struct {
	AppID       string `json:"appid,omitempty"`
	Description string `json:"description,omitempty"`
	PagePath    string `json:"pagePath,omitempty"`
	IconURL     string `json:"iconUrl,omitempty"`
	ShareID     string `json:"shareId,omitempty"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	Title       string `json:"title,omitempty"`
	Username    string `json:"username,omitempty"`
	ThumbKey    string `json:"thumbKey,omitempty"`
}
