package puppet

import (
	"context"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

// ConversationReadMark reports whether conversationID is read, or marks it
// when hasRead is given.
func (a *Adapter) ConversationReadMark(ctx context.Context, conversationID string, hasRead *bool) (bool, error) {
	return invoke[bool](ctx, a, "conversationReadMark", optional([]interface{}{conversationID}, hasRead)...)
}

// MessageContact returns the id of the contact card carried by messageID.
func (a *Adapter) MessageContact(ctx context.Context, messageID string) (string, error) {
	return invoke[string](ctx, a, "messageContact", messageID)
}

func (a *Adapter) MessageImage(ctx context.Context, messageID string, imageType schemas.ImageType) (*schemas.FileBox, error) {
	return invoke[*schemas.FileBox](ctx, a, "messageImage", messageID, imageType)
}

// MessageRecall recalls messageID and reports whether the client accepted it.
func (a *Adapter) MessageRecall(ctx context.Context, messageID string) (bool, error) {
	return invoke[bool](ctx, a, "messageRecall", messageID)
}

func (a *Adapter) MessageFile(ctx context.Context, messageID string) (*schemas.FileBox, error) {
	return invoke[*schemas.FileBox](ctx, a, "messageFile", messageID)
}

func (a *Adapter) MessageURL(ctx context.Context, messageID string) (schemas.URLLinkPayload, error) {
	return invoke[schemas.URLLinkPayload](ctx, a, "messageUrl", messageID)
}

func (a *Adapter) MessageMiniProgram(ctx context.Context, messageID string) (schemas.MiniProgramPayload, error) {
	return invoke[schemas.MiniProgramPayload](ctx, a, "messageMiniProgram", messageID)
}

func (a *Adapter) MessageRawPayload(ctx context.Context, messageID string) (schemas.MessagePayload, error) {
	return invoke[schemas.MessagePayload](ctx, a, "messageRawPayload", messageID)
}

// MessageRawPayloadParser returns payload unchanged.
func (a *Adapter) MessageRawPayloadParser(ctx context.Context, payload schemas.MessagePayload) (schemas.MessagePayload, error) {
	return local(ctx, a, "messageRawPayloadParser", []interface{}{payload}, func() (schemas.MessagePayload, error) {
		return payload, nil
	})
}

// The send operations return the id of the sent message when the sidecar
// reports one.

func (a *Adapter) MessageSendText(ctx context.Context, conversationID, text string) (string, error) {
	return invoke[string](ctx, a, "messageSendText", conversationID, text)
}

func (a *Adapter) MessageSendFile(ctx context.Context, conversationID string, file schemas.FileBox) (string, error) {
	return invoke[string](ctx, a, "messageSendFile", conversationID, file)
}

func (a *Adapter) MessageSendContact(ctx context.Context, conversationID, contactID string) (string, error) {
	return invoke[string](ctx, a, "messageSendContact", conversationID, contactID)
}

func (a *Adapter) MessageSendURL(ctx context.Context, conversationID string, link schemas.URLLinkPayload) (string, error) {
	return invoke[string](ctx, a, "messageSendUrl", conversationID, link)
}

func (a *Adapter) MessageSendMiniProgram(ctx context.Context, conversationID string, mp schemas.MiniProgramPayload) (string, error) {
	return invoke[string](ctx, a, "messageSendMiniProgram", conversationID, mp)
}

func (a *Adapter) MessageForward(ctx context.Context, conversationID, messageID string) (string, error) {
	return invoke[string](ctx, a, "messageForward", conversationID, messageID)
}
