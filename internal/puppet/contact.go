package puppet

import (
	"context"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet/schemas"
)

// ContactSelfQRCode returns the login QR code of the logged in user.
func (a *Adapter) ContactSelfQRCode(ctx context.Context) (string, error) {
	return invoke[string](ctx, a, "contactSelfQRCode")
}

func (a *Adapter) ContactSelfName(ctx context.Context, name string) error {
	return run(ctx, a, "contactSelfName", name)
}

func (a *Adapter) ContactSelfSignature(ctx context.Context, signature string) error {
	return run(ctx, a, "contactSelfSignature", signature)
}

// ContactAlias returns the alias of contactID, or sets it when alias is
// given.
func (a *Adapter) ContactAlias(ctx context.Context, contactID string, alias *string) (string, error) {
	return invoke[string](ctx, a, "contactAlias", optional([]interface{}{contactID}, alias)...)
}

// ContactAliasClear removes the alias of contactID.
func (a *Adapter) ContactAliasClear(ctx context.Context, contactID string) error {
	return run(ctx, a, "contactAlias", contactID, nil)
}

// ContactPhone returns the phone list of contactID, or replaces it when
// phones is not nil.
func (a *Adapter) ContactPhone(ctx context.Context, contactID string, phones []string) ([]string, error) {
	args := []interface{}{contactID}
	if phones != nil {
		args = append(args, phones)
	}
	return invoke[[]string](ctx, a, "contactPhone", args...)
}

// ContactCorporationRemark sets the corporation remark of contactID. A nil
// remark clears it.
func (a *Adapter) ContactCorporationRemark(ctx context.Context, contactID string, remark *string) error {
	return run(ctx, a, "contactCorporationRemark", contactID, nullable(remark))
}

// ContactDescription sets the description of contactID. A nil description
// clears it.
func (a *Adapter) ContactDescription(ctx context.Context, contactID string, description *string) error {
	return run(ctx, a, "contactDescription", contactID, nullable(description))
}

// ContactList returns the ids of all contacts.
func (a *Adapter) ContactList(ctx context.Context) ([]string, error) {
	return invoke[[]string](ctx, a, "contactList")
}

// ContactAvatar returns the avatar of contactID, or sets it when file is
// given. The set form returns nil.
func (a *Adapter) ContactAvatar(ctx context.Context, contactID string, file *schemas.FileBox) (*schemas.FileBox, error) {
	return invoke[*schemas.FileBox](ctx, a, "contactAvatar", optional([]interface{}{contactID}, file)...)
}

func (a *Adapter) ContactRawPayload(ctx context.Context, contactID string) (schemas.ContactPayload, error) {
	return invoke[schemas.ContactPayload](ctx, a, "contactRawPayload", contactID)
}

// ContactRawPayloadParser returns payload unchanged. The sidecar already
// speaks the parsed shape.
func (a *Adapter) ContactRawPayloadParser(ctx context.Context, payload schemas.ContactPayload) (schemas.ContactPayload, error) {
	return local(ctx, a, "contactRawPayloadParser", []interface{}{payload}, func() (schemas.ContactPayload, error) {
		return payload, nil
	})
}

// nullable forwards a nil pointer as an explicit nil argument.
func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
