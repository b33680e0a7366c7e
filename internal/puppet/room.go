package puppet

import (
	"context"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

func (a *Adapter) RoomRawPayload(ctx context.Context, roomID string) (schemas.RoomPayload, error) {
	return invoke[schemas.RoomPayload](ctx, a, "roomRawPayload", roomID)
}

// RoomRawPayloadParser returns payload unchanged.
func (a *Adapter) RoomRawPayloadParser(ctx context.Context, payload schemas.RoomPayload) (schemas.RoomPayload, error) {
	return local(ctx, a, "roomRawPayloadParser", []interface{}{payload}, func() (schemas.RoomPayload, error) {
		return payload, nil
	})
}

// RoomList returns the ids of all rooms.
func (a *Adapter) RoomList(ctx context.Context) ([]string, error) {
	return invoke[[]string](ctx, a, "roomList")
}

// RoomDel removes contactID from roomID.
func (a *Adapter) RoomDel(ctx context.Context, roomID, contactID string) error {
	return run(ctx, a, "roomDel", roomID, contactID)
}

func (a *Adapter) RoomAvatar(ctx context.Context, roomID string) (*schemas.FileBox, error) {
	return invoke[*schemas.FileBox](ctx, a, "roomAvatar", roomID)
}

// RoomAdd invites contactID into roomID.
func (a *Adapter) RoomAdd(ctx context.Context, roomID, contactID string) error {
	return run(ctx, a, "roomAdd", roomID, contactID)
}

// RoomTopic returns the topic of roomID, or sets it when topic is given.
// Setting the topic dirties the cached room payload.
func (a *Adapter) RoomTopic(ctx context.Context, roomID string, topic *string) (string, error) {
	ret, err := invoke[string](ctx, a, "roomTopic", optional([]interface{}{roomID}, topic)...)
	if err != nil {
		return "", err
	}
	if topic != nil && *topic != "" {
		if err := a.DirtyPayload(ctx, schemas.PayloadTypeRoom, roomID); err != nil {
			return "", err
		}
	}
	return ret, nil
}

// RoomCreate creates a room with contactIDs and returns its id.
func (a *Adapter) RoomCreate(ctx context.Context, contactIDs []string, topic string) (string, error) {
	return invoke[string](ctx, a, "roomCreate", contactIDs, topic)
}

func (a *Adapter) RoomQuit(ctx context.Context, roomID string) error {
	return run(ctx, a, "roomQuit", roomID)
}

func (a *Adapter) RoomQRCode(ctx context.Context, roomID string) (string, error) {
	return invoke[string](ctx, a, "roomQRCode", roomID)
}

// RoomMemberList returns the contact ids of roomID's members.
func (a *Adapter) RoomMemberList(ctx context.Context, roomID string) ([]string, error) {
	return invoke[[]string](ctx, a, "roomMemberList", roomID)
}

func (a *Adapter) RoomMemberRawPayload(ctx context.Context, roomID, contactID string) (schemas.RoomMemberPayload, error) {
	return invoke[schemas.RoomMemberPayload](ctx, a, "roomMemberRawPayload", roomID, contactID)
}

// RoomMemberRawPayloadParser returns payload unchanged.
func (a *Adapter) RoomMemberRawPayloadParser(ctx context.Context, payload schemas.RoomMemberPayload) (schemas.RoomMemberPayload, error) {
	return local(ctx, a, "roomMemberRawPayloadParser", []interface{}{payload}, func() (schemas.RoomMemberPayload, error) {
		return payload, nil
	})
}

// RoomAnnounce returns the announcement of roomID, or sets it when text is
// given.
func (a *Adapter) RoomAnnounce(ctx context.Context, roomID string, text *string) (string, error) {
	return invoke[string](ctx, a, "roomAnnounce", optional([]interface{}{roomID}, text)...)
}

func (a *Adapter) RoomInvitationAccept(ctx context.Context, invitationID string) error {
	return run(ctx, a, "roomInvitationAccept", invitationID)
}

// RoomInvitationRawPayload returns the invitation as the sidecar reports it.
func (a *Adapter) RoomInvitationRawPayload(ctx context.Context, invitationID string) (interface{}, error) {
	return invoke[interface{}](ctx, a, "roomInvitationRawPayload", invitationID)
}

// RoomInvitationRawPayloadParser asks the sidecar to parse raw.
func (a *Adapter) RoomInvitationRawPayloadParser(ctx context.Context, raw interface{}) (schemas.RoomInvitationPayload, error) {
	return invoke[schemas.RoomInvitationPayload](ctx, a, "roomInvitationRawPayloadParser", raw)
}
