package puppet

import (
	"context"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

// FriendshipRawPayload returns the friendship as the sidecar reports it.
func (a *Adapter) FriendshipRawPayload(ctx context.Context, friendshipID string) (interface{}, error) {
	return invoke[interface{}](ctx, a, "friendshipRawPayload", friendshipID)
}

// FriendshipRawPayloadParser converts raw locally, by json field name.
func (a *Adapter) FriendshipRawPayloadParser(ctx context.Context, raw interface{}) (schemas.FriendshipPayload, error) {
	return local(ctx, a, "friendshipRawPayloadParser", []interface{}{raw}, func() (schemas.FriendshipPayload, error) {
		return decode[schemas.FriendshipPayload]("friendshipRawPayloadParser", raw)
	})
}

// FriendshipSearchPhone returns the contact id found for phone, or "" when
// there is none.
func (a *Adapter) FriendshipSearchPhone(ctx context.Context, phone string) (string, error) {
	return invoke[string](ctx, a, "friendshipSearchPhone", phone)
}

// FriendshipSearchWeixin returns the contact id found for weixin, or "" when
// there is none.
func (a *Adapter) FriendshipSearchWeixin(ctx context.Context, weixin string) (string, error) {
	return invoke[string](ctx, a, "friendshipSearchWeixin", weixin)
}

func (a *Adapter) FriendshipAdd(ctx context.Context, contactID, hello string) error {
	return run(ctx, a, "friendshipAdd", contactID, hello)
}

func (a *Adapter) FriendshipAccept(ctx context.Context, friendshipID string) error {
	return run(ctx, a, "friendshipAccept", friendshipID)
}
